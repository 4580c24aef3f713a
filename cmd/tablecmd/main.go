// Package main is the entry point for the tablecmd binary.
package main

import (
	"os"

	"github.com/robert-radu/tablecmd/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
