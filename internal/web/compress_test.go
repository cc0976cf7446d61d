package web

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLastEventID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   uint64
	}{
		{name: "empty", want: 0},
		{name: "header", header: "42", want: 42},
		{name: "query", query: "7", want: 7},
		{name: "header wins", header: "3", query: "9", want: 3},
		{name: "garbage", header: "abc", want: 0},
		{name: "negative", query: "-1", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLastEventID(tt.header, tt.query))
		})
	}
}

func TestServer_IndexCompressed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<html")
}

func TestServer_AnnotationStreamResumes(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/annotations", `{"x1":1,"y1":1,"x2":2,"y2":2,"color":"red"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(http.MethodPost, "/api/annotations", `{"x1":3,"y1":3,"x2":4,"y2":4,"color":"blue"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	stream := func(lastID string) string {
		ctx, cancel := context.WithCancel(context.Background())
		req := httptest.NewRequest(http.MethodGet, "/api/annotations/stream", nil).WithContext(ctx)
		req.AddCookie(env.cookie)
		if lastID != "" {
			req.Header.Set("Last-Event-ID", lastID)
		}
		rec := httptest.NewRecorder()
		cancel()
		env.handler.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	all := stream("")
	assert.Contains(t, all, `"color":"red"`)
	assert.Contains(t, all, `"color":"blue"`)

	var firstID string
	for _, line := range strings.Split(all, "\n") {
		if strings.HasPrefix(line, "id: ") {
			firstID = strings.TrimPrefix(line, "id: ")
			break
		}
	}
	require.NotEmpty(t, firstID)

	resumed := stream(firstID)
	assert.NotContains(t, resumed, `"color":"red"`)
	assert.Contains(t, resumed, `"color":"blue"`)
}
