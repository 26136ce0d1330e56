package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveLookup(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("url")
		fmt.Fprint(w, `{"archived_snapshots":{"closest":{"available":true,"status":"200","url":"https://web.archive.org/web/2024/https://example.com/a"}}}`)
	}))
	defer srv.Close()

	a := NewArchiveClient(srv.URL, 0)
	snapshot, err := a.Lookup(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://web.archive.org/web/2024/https://example.com/a", snapshot)
	assert.Equal(t, "https://example.com/a", gotQuery)
}

func TestArchiveLookupNoSnapshot(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty snapshots", `{"archived_snapshots":{}}`},
		{"non-200 archived status", `{"archived_snapshots":{"closest":{"available":false,"status":"404","url":"https://web.archive.org/web/x"}}}`},
		{"missing url", `{"archived_snapshots":{"closest":{"available":true,"status":"200","url":""}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			a := NewArchiveClient(srv.URL, 0)
			_, err := a.Lookup(context.Background(), "https://example.com/missing")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no archive snapshot available")
		})
	}
}

func TestArchiveLookupHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewArchiveClient(srv.URL, 0)
	_, err := a.Lookup(context.Background(), "https://example.com/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestArchiveLookupMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"archived_snapshots": [`)
	}))
	defer srv.Close()

	a := NewArchiveClient(srv.URL, 0)
	_, err := a.Lookup(context.Background(), "https://example.com/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse archive response")
}
