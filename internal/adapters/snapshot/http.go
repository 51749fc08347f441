package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
)

// HTTPSource fetches GET <BaseURL>/<class> and decodes the JSON body.
type HTTPSource struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.SnapshotSource = HTTPSource{}

func (s HTTPSource) Fetch(ctx context.Context, class domain.CollectionClass) ([]domain.Entity, error) {
	if err := class.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := buildCollectionURL(s.BaseURL, class)
	if err != nil {
		return nil, err
	}

	requestCtx, cancel := s.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s snapshot: %w", class, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("request %s snapshot: status %d", class, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", class, err)
	}
	if len(data) > maxSnapshotBytes {
		return nil, fmt.Errorf("read %s snapshot: %w", class, ErrSnapshotTooLarge)
	}
	return decodeCollection(data)
}

func (s HTTPSource) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s HTTPSource) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := s.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func buildCollectionURL(baseURL string, class domain.CollectionClass) (string, error) {
	if strings.TrimSpace(baseURL) == "" {
		return "", errors.New("sync base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse sync base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("sync base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("sync base url host is required")
	}

	return parsed.JoinPath(string(class)).String(), nil
}
