package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jewelry-identifier/api/internal/jewel"
)

// Fetcher retrieves a remote image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (jewel.ImageData, error)
}

type HTTPFetcher struct {
	httpc *http.Client
}

func NewHTTPFetcher(c *http.Client) *HTTPFetcher {
	if c == nil {
		c = http.DefaultClient
	}
	return &HTTPFetcher{httpc: c}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (jewel.ImageData, error) {
	if strings.TrimSpace(url) == "" {
		return jewel.ImageData{}, errors.New("default image url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jewel.ImageData{}, err
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		return jewel.ImageData{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return jewel.ImageData{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return jewel.ImageData{}, err
	}
	if len(data) == 0 {
		return jewel.ImageData{}, errors.New("empty body")
	}
	return jewel.NewImageData(data, resp.Header.Get("Content-Type")), nil
}
