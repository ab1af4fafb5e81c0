package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTitleServer answers 404 unless video_id matches wantID
func newTitleServer(t *testing.T, wantID string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("video_id") != wantID {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPTitleResolver_JSON(t *testing.T) {
	srv := newTitleServer(t, "dQw4w9WgXcQ", http.StatusOK, `{"title":"Never Gonna Give You Up","author_name":"Rick Astley"}`)
	resolver := NewHTTPTitleResolver(srv.URL+"/oembed?video_id={id}", time.Second)

	title, err := resolver.ResolveTitle(context.Background(), "dQw4w9WgXcQ")

	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", title)
}

func TestHTTPTitleResolver_URLEncoded(t *testing.T) {
	srv := newTitleServer(t, "abc", http.StatusOK, "status=ok&title=Caf%C3%A9+Music+Mix&length_seconds=212")
	resolver := NewHTTPTitleResolver(srv.URL+"/get_video_info?video_id={id}", time.Second)

	title, err := resolver.ResolveTitle(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, "Café Music Mix", title)
}

func TestHTTPTitleResolver_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"title":"ignored"}`},
		{"empty json title", http.StatusOK, `{"title":""}`},
		{"no title field", http.StatusOK, "status=fail&reason=unavailable"},
		{"empty body", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTitleServer(t, "abc", tt.status, tt.body)
			resolver := NewHTTPTitleResolver(srv.URL+"/?video_id={id}", time.Second)

			title, err := resolver.ResolveTitle(context.Background(), "abc")

			assert.Error(t, err)
			assert.Empty(t, title)
		})
	}
}

func TestHTTPTitleResolver_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/?video_id={id}"
	srv.Close()

	_, err := NewHTTPTitleResolver(endpoint, time.Second).ResolveTitle(context.Background(), "abc")
	assert.Error(t, err)
}
