package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/ingest-fabric/pkg/docfactory"
)

func TestHTTPSearchWriterUpsertSuccess(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	writer := NewHTTPSearchWriter(srv.URL)
	err := writer.Upsert(context.Background(), docfactory.Document{DocID: "e1", SourceType: "email"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Contains(t, gotPath, "e1")
}

func TestHTTPSearchWriterUpsertPermanentRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	writer := NewHTTPSearchWriter(srv.URL)
	err := writer.Upsert(context.Background(), docfactory.Document{DocID: "e1", SourceType: "email"})
	require.Error(t, err)
}

func TestHTTPSearchWriterDeleteNotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	writer := NewHTTPSearchWriter(srv.URL)
	err := writer.Delete(context.Background(), "e1")
	require.NoError(t, err)
}
