package snapshot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSourceFetchesClassPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/collections/repos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entities":[
			{"id":"A","name":"alpha","version":"v2","updated_at":"2026-01-02T03:04:05Z"},
			{"id":"C","name":"gamma","attributes":{"lang":"go"}}
		]}`))
	}))
	defer server.Close()

	entities, err := HTTPSource{BaseURL: server.URL + "/api/collections"}.Fetch(context.Background(), "repos")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "A", entities[0].ID)
	assert.True(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Equal(entities[0].UpdatedAt))
	assert.True(t, entities[1].UpdatedAt.IsZero())
	assert.Equal(t, map[string]string{"lang": "go"}, entities[1].Attributes)
}

func TestHTTPSourceReturnsStatusErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := HTTPSource{BaseURL: server.URL}.Fetch(context.Background(), "repos")
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 503")
}

func TestHTTPSourceRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{name: "at limit", size: maxSnapshotBytes},
		{name: "one byte over", size: maxSnapshotBytes + 1, wantErr: ErrSnapshotTooLarge},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body := append([]byte("[]"), bytes.Repeat([]byte(" "), tt.size-2)...)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(body)
			}))
			defer server.Close()

			entities, err := HTTPSource{BaseURL: server.URL}.Fetch(context.Background(), "repos")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorContains(t, err, "snapshot exceeds 8 MiB")
				return
			}
			require.NoError(t, err)
			assert.Empty(t, entities)
		})
	}
}

func TestFileSourceRejectsOversizedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := append([]byte("[]"), bytes.Repeat([]byte(" "), maxSnapshotBytes)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), body, 0o600))

	_, err := FileSource{Dir: dir}.Fetch(context.Background(), "repos")
	require.ErrorIs(t, err, ErrSnapshotTooLarge)
}

func TestHTTPSourceValidatesBaseURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{name: "empty", baseURL: "", wantErr: "sync base url is required"},
		{name: "scheme", baseURL: "ftp://example.com", wantErr: "must use http or https"},
		{name: "host", baseURL: "http://", wantErr: "host is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := HTTPSource{BaseURL: tc.baseURL}.Fetch(context.Background(), "repos")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFileSourceReadsBareArrayAndEncodedCollections(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracks.json"), []byte(`[{"id":"T1","name":"intro"}]`), 0o600))

	entities, err := FileSource{Dir: dir}.Fetch(context.Background(), "tracks")
	require.NoError(t, err)
	assert.Equal(t, []domain.Entity{{ID: "T1", Name: "intro"}}, entities)

	updated := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	want := []domain.Entity{{ID: "R1", Name: "repo", Version: "v3", UpdatedAt: updated}}
	data, err := EncodeCollection("repos", want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), data, 0o600))

	entities, err = FileSource{Dir: dir}.Fetch(context.Background(), "repos")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.True(t, updated.Equal(entities[0].UpdatedAt))
	assert.Equal(t, "v3", entities[0].Version)

	_, err = FileSource{Dir: dir}.Fetch(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "not found")
}
