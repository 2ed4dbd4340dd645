package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultEmbedURL   = "http://localhost:11434/api/embed"
	defaultEmbedModel = "clip-vit-b-32"
	maxImageBytes     = 10 << 20
	embedMaxRetries   = 3
	embedInitialDelay = 500 * time.Millisecond
)

// HTTPFetcher downloads photos over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// Opener reads files this service stored itself.
type Opener interface {
	Open(publicPath string) (*os.File, error)
}

// LocalFirst reads refs under prefix from local storage and hands every other
// ref to next.
type LocalFirst struct {
	prefix string
	store  Opener
	next   Fetcher
}

func NewLocalFirst(prefix string, store Opener, next Fetcher) *LocalFirst {
	return &LocalFirst{prefix: prefix, store: store, next: next}
}

func (f *LocalFirst) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	if !strings.HasPrefix(ref, f.prefix) {
		return f.next.FetchBytes(ctx, ref)
	}

	file, err := f.store.Open(ref)
	if err != nil {
		return nil, errors.Wrap(err, "opening stored photo")
	}
	defer file.Close()

	return io.ReadAll(io.LimitReader(file, maxImageBytes))
}

// EmbedClient calls an HTTP image embedding service.
type EmbedClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// EmbedOption configures an EmbedClient.
type EmbedOption func(*EmbedClient)

func WithEmbedURL(url string) EmbedOption {
	return func(c *EmbedClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

func WithEmbedModel(model string) EmbedOption {
	return func(c *EmbedClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(hc *http.Client) EmbedOption {
	return func(c *EmbedClient) { c.client = hc }
}

func NewEmbedClient(opts ...EmbedOption) *EmbedClient {
	c := &EmbedClient{
		baseURL: defaultEmbedURL,
		model:   defaultEmbedModel,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed posts the base64 encoded image and returns the first embedding.
// Server errors are retried with exponential backoff.
func (c *EmbedClient) Embed(ctx context.Context, image []byte) ([]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model:  c.model,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * embedInitialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "creating request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, "embedding request failed")
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, "reading response body")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = errors.Errorf("embedding error (%d): %s", resp.StatusCode, string(respBody))
			if resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		var out embedResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, errors.Wrap(err, "decoding response")
		}
		if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
			return nil, errors.New("no embeddings returned")
		}

		return out.Embeddings[0], nil
	}

	return nil, errors.Wrapf(lastErr, "max retries (%d) exceeded", embedMaxRetries)
}
