package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// defaultExtractTimeout keeps a slow extractor from stalling resolution.
const defaultExtractTimeout = 800 * time.Millisecond

// HTTPExtractor calls a remote extraction endpoint. The endpoint receives
// {"text": ...} and answers with per-level candidate lists in the
// ExtractedCandidates JSON shape.
type HTTPExtractor struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPExtractor builds an HTTPExtractor for the given endpoint.
func NewHTTPExtractor(url string, timeout time.Duration, logger *zap.Logger) *HTTPExtractor {
	if timeout <= 0 {
		timeout = defaultExtractTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPExtractor{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

// Extract posts the text to the endpoint and decodes the candidate lists.
func (x *HTTPExtractor) Extract(ctx context.Context, text string) (*ExtractedCandidates, error) {
	body, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode extract request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		x.logger.Warn("extractor unreachable", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x.logger.Warn("extractor returned non-200", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("extractor status %d", resp.StatusCode)
	}

	var out ExtractedCandidates
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		x.logger.Warn("extractor response undecodable", zap.Error(err))
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	return &out, nil
}
