package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// maxBodySize bounds the size of a fetched document.
const maxBodySize = 64 << 20

// Supplier returns the raw text of a source.
type Supplier func(ctx context.Context) (string, error)

// StringSupplier returns text unchanged.
func StringSupplier(text string) Supplier {
	return func(context.Context) (string, error) {
		return text, nil
	}
}

// FileSupplier reads the file at path.
func FileSupplier(path string) Supplier {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(b), nil
	}
}

// URLSupplier fetches url with a single GET. A nil client uses
// http.DefaultClient. Non-2xx responses are errors.
func URLSupplier(client *http.Client, url string) Supplier {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return "", fmt.Errorf("read body of %s: %w", url, err)
		}
		return string(b), nil
	}
}
