package eodhd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/etnz/folio"
)

// errNotFound reports a 404, meaning EODHD does not know the ticker.
var errNotFound = errors.New("not found")

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
//
// Transport failures and unexpected statuses wrap folio.ErrDataFetch, undecodable
// bodies wrap folio.ErrDataShape.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", folio.ErrDataFetch, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", folio.ErrDataFetch, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("http GET %v: %w", req.URL.Path, errNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: cannot http GET %v/%v: %v", folio.ErrDataFetch, req.URL.Host, req.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return fmt.Errorf("%w: read %v: %w", folio.ErrDataFetch, req.URL.Path, err)
	}
	if err := json.Unmarshal(buf.Bytes(), data); err != nil {
		return fmt.Errorf("%w: decode %v: %w", folio.ErrDataShape, req.URL.Path, err)
	}
	return nil
}
