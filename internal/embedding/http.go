package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quovi/discover/internal/breaker"
)

// HTTPGenerator calls a text vectorizer service: POST {origin}/vectors with
// {"text": ...} answering {"vector": [...]}.
type HTTPGenerator struct {
	origin      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *breaker.Breaker[[]float64]
	concurrency int
}

// HTTPOption configures an HTTPGenerator.
type HTTPOption func(*HTTPGenerator)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGenerator) { g.httpClient = c }
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables the cap.
func WithRateLimit(rps float64) HTTPOption {
	return func(g *HTTPGenerator) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// WithConcurrency bounds the number of in-flight requests.
func WithConcurrency(n int) HTTPOption {
	return func(g *HTTPGenerator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewHTTPGenerator creates a generator for the service at origin.
func NewHTTPGenerator(origin string, timeout time.Duration, opts ...HTTPOption) *HTTPGenerator {
	g := &HTTPGenerator{
		origin:      strings.TrimRight(origin, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     breaker.New[[]float64]("embeddings-api", breaker.Settings{}, nil),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns "http".
func (g *HTTPGenerator) Name() string { return "http" }

// Embed vectorizes every text. It fails on the first error.
func (g *HTTPGenerator) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, text := range texts {
		eg.Go(func() error {
			if g.limiter != nil {
				if err := g.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			v, err := g.breaker.Execute(func() ([]float64, error) {
				return g.vectorize(ctx, text)
			})
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type vecRequest struct {
	Text string `json:"text"`
}

type vecResponse struct {
	Text   string    `json:"text"`
	Dims   int       `json:"dims"`
	Vector []float64 `json:"vector"`
	Error  string    `json:"error"`
}

func (g *HTTPGenerator) vectorize(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(vecRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.origin+"/vectors", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send POST request: %w", err)
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var resBody vecResponse
	if err := json.Unmarshal(bodyBytes, &resBody); err != nil {
		if res.StatusCode > 399 {
			return nil, fmt.Errorf("fail with status %d", res.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal response body: %w", err)
	}

	if res.StatusCode > 399 {
		return nil, fmt.Errorf("fail with status %d: %s", res.StatusCode, resBody.Error)
	}
	if len(resBody.Vector) == 0 {
		return nil, fmt.Errorf("empty vector in response")
	}
	return resBody.Vector, nil
}
