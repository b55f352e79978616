package shoko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amaumene/watchsync/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Client{
		baseURL:    srv.URL,
		username:   "Default",
		password:   "pw",
		device:     "test device",
		httpClient: srv.Client(),
		logger:     logger,
	}, srv
}

func TestAuthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Default", body["user"])
		assert.Equal(t, "pw", body["pass"])
		assert.Equal(t, "test device", body["device"])
		fmt.Fprint(w, `{"apikey":"abc123"}`)
	})
	mux.HandleFunc("/api/v3/Episode/5/Watched/true", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.Header.Get("apikey"))
	})
	client, _ := newTestClient(t, mux)

	key, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)

	require.NoError(t, client.SetEpisodeWatched(context.Background(), 5))
}

func TestAuthenticateRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		client, _ := newTestClient(t, mux)

		_, err := client.Authenticate(context.Background())
		var authErr *models.AuthError
		require.True(t, errors.As(err, &authErr), "status %d", status)
		assert.Equal(t, models.ServiceShoko, authErr.Service)
	}
}

func TestAuthenticateUnreachable(t *testing.T) {
	client, srv := newTestClient(t, http.NewServeMux())
	srv.Close()

	_, err := client.Authenticate(context.Background())
	var connErr *models.ConnectError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, models.ServiceShoko, connErr.Service)
}

func TestFilesByPathSuffix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/File/PathEndsWith", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `\S01E01.mkv`, r.URL.Query().Get("path"))
		assert.Equal(t, "0", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[
  {"ID":1,"Locations":[{"RelativePath":"Show/S01E01.mkv","ImportFolderID":1}],
   "SeriesIDs":[{"SeriesID":{"ID":10},"EpisodeIDs":[{"ID":100},{"ID":101}]},
                {"SeriesID":{"ID":11},"EpisodeIDs":[{"ID":200}]}],
   "Watched":null},
  {"ID":2,"Locations":[{"RelativePath":"Other\\XS01E01.mkv","ImportFolderID":1}],"SeriesIDs":[],"Watched":null}
]`)
	})
	client, _ := newTestClient(t, mux)

	files, err := client.FilesByPathSuffix(context.Background(), `\S01E01.mkv`)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 1, files[0].ID)
	assert.Equal(t, models.TriUnknown, files[0].Watched)
	assert.Equal(t, []int{100, 101, 200}, files[0].EpisodeIDs())
}

func TestFilesByPathSuffixWatchedStates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/File/PathEndsWith", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"ID":3,"Locations":[{"RelativePath":"S01E02.mkv"}],"Watched":"2024-01-01T00:00:00"},
		                {"ID":4,"Locations":[{"RelativePath":"Show\\S01E02.mkv"}],"Watched":false}]`)
	})
	client, _ := newTestClient(t, mux)

	files, err := client.FilesByPathSuffix(context.Background(), `\S01E02.mkv`)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, models.TriTrue, files[0].Watched)
	assert.Equal(t, models.TriFalse, files[1].Watched)
}

func TestWatchedEpisodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/Episode", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "only", q.Get("includeWatched"))
		assert.Equal(t, "true", q.Get("includeFiles"))
		assert.Equal(t, "0", q.Get("pageSize"))
		fmt.Fprint(w, `{"Total":2,"List":[
  {"IDs":{"ID":1},"Files":[{"ID":1,"Locations":[{"RelativePath":"Show\\S01E01.mkv"},{"RelativePath":"Backup\\S01E01.mkv"}]}]},
  {"IDs":{"ID":2},"Files":[]}
]}`)
	})
	client, _ := newTestClient(t, mux)

	episodes, err := client.WatchedEpisodes(context.Background())
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, `Show\S01E01.mkv`, episodes[0].PrimaryPath())
	assert.Empty(t, episodes[1].PrimaryPath())
}

func TestServerErrorIsNotAuthError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/Episode/9/Watched/true", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, mux)

	err := client.SetEpisodeWatched(context.Background(), 9)
	require.Error(t, err)
	var authErr *models.AuthError
	assert.False(t, errors.As(err, &authErr))
	assert.Contains(t, err.Error(), "500")
}
