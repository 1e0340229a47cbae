package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrDocumentNotFound is returned when the provider answers 404 for a DNI/RUC.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentClient queries the RENIEC (DNI) and SUNAT (RUC) lookup provider.
// Requests are form POSTs; the provider answers with free-form JSON which is
// returned untouched.
type DocumentClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *CircuitBreaker
	attempts   int
	backoff    time.Duration
}

func NewDocumentClient(baseURL string, timeout time.Duration, breaker *CircuitBreaker) *DocumentClient {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCBConfig())
	}
	return &DocumentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker:  breaker,
		attempts: 2,
		backoff:  100 * time.Millisecond,
	}
}

func (c *DocumentClient) ConsultDNI(ctx context.Context, dni string) (json.RawMessage, error) {
	return c.post(ctx, "/consulta-reniec-simple", url.Values{"dni": {dni}})
}

func (c *DocumentClient) ConsultRUC(ctx context.Context, ruc string) (json.RawMessage, error) {
	return c.post(ctx, "/consulta-sunat", url.Values{"ruc": {ruc}})
}

func (c *DocumentClient) post(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	var body json.RawMessage
	err := c.breaker.Execute(func() error {
		var err error
		for attempt := 1; attempt <= c.attempts; attempt++ {
			body, err = c.once(ctx, path, form)
			if err == nil || errors.Is(err, ErrDocumentNotFound) || ctx.Err() != nil {
				return err
			}
			if attempt < c.attempts {
				select {
				case <-time.After(c.backoff):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return err
	}, func(err error) bool { return !errors.Is(err, ErrDocumentNotFound) })
	return body, err
}

func (c *DocumentClient) once(ctx context.Context, path string, form url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("documents: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("documents: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("documents: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrDocumentNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("documents: provider returned %d", resp.StatusCode)
	case !json.Valid(raw):
		return nil, errors.New("documents: provider returned invalid JSON")
	}
	return raw, nil
}
