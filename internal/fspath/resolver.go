// Package fspath resolves user-supplied LOAD DATA paths against a default
// filesystem configuration, replicating legacy warehouse path semantics:
// scheme and authority default from the configured filesystem, and relative
// remote paths are rooted at /user/<current-user>.
package fspath

import (
	"fmt"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/robert-radu/tablecmd/internal/domain"
)

// Resolver turns raw paths into canonical absolute URIs. It holds no state
// beyond its configuration and performs no I/O except a single local
// existence probe for LOCAL paths.
type Resolver struct {
	scheme    string // default filesystem scheme, may be empty
	authority string // default filesystem authority, may be empty
	username  string // current process user, fixed at construction
}

// New creates a Resolver from the default filesystem URI, e.g.
// "hdfs://namenode:8020" or "file:///". An empty defaultFS leaves both the
// scheme and authority defaults unset.
func New(defaultFS string) (*Resolver, error) {
	r := &Resolver{username: currentUsername()}
	if defaultFS == "" {
		return r, nil
	}
	u, err := url.Parse(defaultFS)
	if err != nil {
		return nil, fmt.Errorf("parse default filesystem %q: %w", defaultFS, err)
	}
	r.scheme = u.Scheme
	r.authority = u.Host
	return r, nil
}

// WithUsername returns a copy of the Resolver that roots relative remote
// paths under the given user instead of the process user.
func (r *Resolver) WithUsername(name string) *Resolver {
	c := *r
	c.username = name
	return &c
}

// Resolve turns rawPath into a canonical absolute URI.
//
// Local paths are made absolute and verified to exist on the local
// filesystem; the check is advisory, not a lock. Remote paths keep an
// existing scheme+authority verbatim, otherwise each missing part defaults
// from the configured filesystem, and a relative path component is rooted at
// /user/<username>.
func (r *Resolver) Resolve(rawPath string, isLocal bool) (string, error) {
	if isLocal {
		return r.resolveLocal(rawPath)
	}
	return r.resolveRemote(rawPath)
}

func (r *Resolver) resolveLocal(rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolve local path %q: %w", rawPath, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", domain.ErrCommand(domain.CauseLocalPathNotFound,
			"LOAD DATA input path does not exist: %s", rawPath)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func (r *Resolver) resolveRemote(rawPath string) (string, error) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return "", fmt.Errorf("parse load path %q: %w", rawPath, err)
	}

	// A path carrying both scheme and authority is already canonical.
	if u.Scheme != "" && u.Host != "" {
		return rawPath, nil
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = r.scheme
	}
	if scheme == "" {
		return "", domain.ErrCommand(domain.CausePathMissingScheme,
			"LOAD DATA: URI scheme is required for path %s", rawPath)
	}
	authority := u.Host
	if authority == "" {
		authority = r.authority
	}

	// Opaque URIs (scheme:rel/path) keep the opaque part as the path.
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	if !strings.HasPrefix(path, "/") {
		path = "/user/" + r.username + "/" + path
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     authority,
		Path:     path,
		RawQuery: u.RawQuery,
		Fragment: u.Fragment,
	}
	return out.String(), nil
}

// currentUsername returns the process user name, falling back to the USER
// environment variable. Relative remote paths deliberately use the process
// identity, not any session-level identity.
func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
