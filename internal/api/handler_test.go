package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-radu/tablecmd/internal/command"
	"github.com/robert-radu/tablecmd/internal/domain"
	"github.com/robert-radu/tablecmd/internal/fspath"
	"github.com/robert-radu/tablecmd/internal/testutil"
)

func newTestServer(t *testing.T, catalog *testutil.MockCatalog) *httptest.Server {
	t.Helper()
	resolver, err := fspath.New("hdfs://namenode:8020")
	require.NoError(t, err)
	executor := command.NewExecutor(catalog, resolver.WithUsername("tester"), nil)
	srv := httptest.NewServer(NewRouter(NewHandler(executor, nil), nil))
	t.Cleanup(srv.Close)
	return srv
}

func postStatement(t *testing.T, srv *httptest.Server, sql string) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]string{"sql": sql})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/v1/statements", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &testutil.MockCatalog{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExecuteStatement_ShowTables(t *testing.T) {
	catalog := &testutil.MockCatalog{
		ListTablesFn: func(_ context.Context, db string) ([]domain.TableIdent, error) {
			assert.Equal(t, "sales", db)
			return []domain.TableIdent{
				{Name: "scratch"},
				{Database: "sales", Name: "orders"},
			}, nil
		},
	}
	srv := newTestServer(t, catalog)

	resp := postStatement(t, srv, "SHOW TABLES IN sales")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Columns []struct {
			Name     string `json:"name"`
			Type     string `json:"type"`
			Nullable bool   `json:"nullable"`
		} `json:"columns"`
		Rows [][]any `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Columns, 2)
	assert.Equal(t, "tableName", body.Columns[0].Name)
	assert.Equal(t, "isTemporary", body.Columns[1].Name)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, []any{"scratch", true}, body.Rows[0])
	assert.Equal(t, []any{"orders", false}, body.Rows[1])
}

func TestExecuteStatement_CreateTable(t *testing.T) {
	catalog := &testutil.MockCatalog{}
	srv := newTestServer(t, catalog)

	resp := postStatement(t, srv, "CREATE TABLE sales.orders (id bigint, year int)")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, 1, catalog.MutationCount())
	assert.Equal(t, "CreateTable", catalog.Mutations[0].Method)
}

func TestExecuteStatement_CommandErrorIs400(t *testing.T) {
	catalog := &testutil.MockCatalog{
		TableExistsFn: func(context.Context, domain.TableIdent) (bool, error) {
			return false, nil
		},
	}
	srv := newTestServer(t, catalog)

	resp := postStatement(t, srv, "LOAD DATA INPATH '/in' INTO TABLE sales.orders")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Contains(t, body.Message, "sales.orders")
	assert.Zero(t, catalog.MutationCount())
}

func TestExecuteStatement_ParseErrorIs400(t *testing.T) {
	srv := newTestServer(t, &testutil.MockCatalog{})

	resp := postStatement(t, srv, "SELECT 1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteStatement_NotFoundIs404(t *testing.T) {
	catalog := &testutil.MockCatalog{
		LookupRelationFn: func(_ context.Context, id domain.TableIdent) (domain.Relation, error) {
			return nil, domain.ErrNotFound("table %s not found in metastore", id)
		},
	}
	srv := newTestServer(t, catalog)

	resp := postStatement(t, srv, "DESCRIBE sales.ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecuteStatement_BadRequests(t *testing.T) {
	srv := newTestServer(t, &testutil.MockCatalog{})

	resp, err := http.Post(srv.URL+"/v1/statements", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postStatement(t, srv, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteStatement_OversizedBodyRejected(t *testing.T) {
	srv := newTestServer(t, &testutil.MockCatalog{})

	body := bytes.Repeat([]byte("x"), maxStatementBody+1)
	resp, err := http.Post(srv.URL+"/v1/statements", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var errResp errorJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, http.StatusRequestEntityTooLarge, errResp.Code)
	assert.Equal(t, "request body too large", errResp.Message)
}
