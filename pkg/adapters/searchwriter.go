package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/arc-self/ingest-fabric/pkg/docfactory"
)

// SearchWriter accepts a docfactory.Document and performs an upsert keyed
// by DocID, idempotent for repeated identical writes; deletes are by
// DocID (§4.H).
type SearchWriter interface {
	Upsert(ctx context.Context, doc docfactory.Document) error
	Delete(ctx context.Context, docID string) error
}

// HTTPSearchWriter is an HTTP upsert-by-doc_id writer for a Vespa-like
// search backend: PUT /document/v1/<namespace>/<docType>/docid/<doc_id>.
type HTTPSearchWriter struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSearchWriter constructs a writer targeting baseURL.
func NewHTTPSearchWriter(baseURL string) *HTTPSearchWriter {
	return &HTTPSearchWriter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *HTTPSearchWriter) Upsert(ctx context.Context, doc docfactory.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	op := func() error {
		url := fmt.Sprintf("%s/document/v1/ingest/%s/docid/%s", w.baseURL, doc.SourceType, doc.DocID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err // network error: retry
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("search backend %d", resp.StatusCode) // transient, retry
		default:
			return backoff.Permanent(fmt.Errorf("search backend rejected write: %d", resp.StatusCode))
		}
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (w *HTTPSearchWriter) Delete(ctx context.Context, docID string) error {
	op := func() error {
		url := fmt.Sprintf("%s/document/v1/ingest/_/docid/%s", w.baseURL, docID)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300, resp.StatusCode == http.StatusNotFound:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("search backend %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("search backend rejected delete: %d", resp.StatusCode))
		}
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
