package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/dynql/internal/compiler"
	"github.com/roach88/dynql/internal/repository"
	"github.com/roach88/dynql/internal/resolver"
	"github.com/roach88/dynql/internal/store"
	"github.com/roach88/dynql/internal/testutil"
)

func blogSchema(t *testing.T) graphql.Schema {
	t.Helper()
	cat := testutil.BlogCatalog(t)
	s, err := store.Open(filepath.Join(t.TempDir(), "blog.db"), cat)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.SeedFile(context.Background(), testutil.BlogFixtures(t))
	require.NoError(t, err)

	schema, err := resolver.NewSchema(cat, repository.New(compiler.New(cat), s, nil))
	require.NoError(t, err)
	return schema
}

func newTestServer(t *testing.T, log *zap.SugaredLogger, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(blogSchema(t), log, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestGraphQL_Post(t *testing.T) {
	srv := newTestServer(t, nil, WithIDGenerator(testutil.NewFixedIDGenerator("req-1")))

	payload := `{"query": "query P($id: Int!) { getPost(postId: $id) { title author { lastName } } }", "variables": {"id": 3}}`
	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"data": {"getPost": {"title": "On Computable Numbers", "author": {"lastName": "Turing"}}}}`, body(t, resp))
}

func TestGraphQL_Get(t *testing.T) {
	srv := newTestServer(t, nil)

	q := url.Values{"query": {`{ getAllPages(orderAscBy: "content") { content } }`}}
	resp, err := http.Get(srv.URL + "/graphql?" + q.Encode())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data": {"getAllPages": [{"content": "abstract"}, {"content": "conclusion"}, {"content": "intro"}]}}`, body(t, resp))
}

func TestGraphQL_ErrorsAreInTheBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(`{"query": "{ getPost { title } }"}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Errors []struct{ Message string } `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &res))
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "postId")
}

func TestGraphQL_BadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/graphql", `{"query":`, http.StatusBadRequest},
		{"missing query", http.MethodPost, "/graphql", `{}`, http.StatusBadRequest},
		{"bad variables", http.MethodGet, "/graphql?query=%7Bx%7D&variables=nope", "", http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/graphql", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.target, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGraphQL_RequestBodyIsCapped(t *testing.T) {
	srv := newTestServer(t, nil, WithMaxRequestBytes(64))

	small := `{"query":"{ getPost(postId: 1) { title } }"}`
	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(small))
	require.NoError(t, err)
	assert.Contains(t, body(t, resp), "Notes on the Engine")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	large := `{"query":"{ getPost(postId: 1) { title } }","operationName":"` + strings.Repeat("x", 128) + `"}`
	resp, err = http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(large))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRequestIDs_AreUUIDv7ByDefault(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	id, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRequestIDs_AreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ids := testutil.NewSequentialIDGenerator()
	srv := newTestServer(t, zap.New(core).Sugar(), WithIDGenerator(ids))

	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(`{"query": "{ getAllUsers { firstName } }"}`))
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.FilterMessage("graphql request").All()
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].ContextMap()["request_id"], entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(0), entries[0].ContextMap()["errors"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok"}`, body(t, resp))

	failing := newTestServer(t, nil, WithHealthCheck(func(context.Context) error {
		return errors.New("database is locked")
	}))
	resp, err = http.Get(failing.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body(t, resp), "database is locked")
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/graphql", "application/json", strings.NewReader(`{"query": "{ getAllUsers { firstName } }"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	text := body(t, resp)

	assert.Contains(t, text, "dynql_graphql_queries_total")
	assert.Contains(t, text, `dynql_http_requests_total{method="POST",path="graphql",status="200"}`)
	assert.Contains(t, text, "dynql_http_request_duration_seconds")
}

func TestPathLabel(t *testing.T) {
	assert.Equal(t, "root", pathLabel("/"))
	assert.Equal(t, "graphql", pathLabel("/graphql"))
	assert.Equal(t, "graphql", pathLabel("/graphql/extra"))
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	server := New(blogSchema(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
