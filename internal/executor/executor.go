package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/sciencetwins/twins/internal/types"
	"golang.org/x/oauth2"
)

const (
	// DefaultEndpoint is the analysis service endpoint used when none is configured
	DefaultEndpoint = "http://127.0.0.1:8000/api/analyze"
	// DefaultTimeout bounds one analysis request; the service chains several model calls
	DefaultTimeout = 180 * time.Second
	// maxResponseSize caps how much of a response body is read
	maxResponseSize = 16 << 20
)

// ClientConfig configures the analysis client
type ClientConfig struct {
	Endpoint  string
	Timeout   time.Duration // 0 leaves requests unbounded
	Token     string        // optional bearer token
	TLS       *types.TLSConfig
	UserAgent string
	Logger    *slog.Logger

	// Transport overrides the default transport (tests)
	Transport http.RoundTripper
}

// Client submits analysis requests to the service
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// Result is the transport-level outcome of one submission, kept for history
type Result struct {
	Status       int
	Body         []byte
	Duration     int64 // milliseconds
	RequestSize  int
	ResponseSize int
}

// NewClient builds a client for the configured endpoint
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "twins"
	}

	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      httpClient,
		logger:    logger,
	}, nil
}

// Endpoint returns the URL requests are posted to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit posts the request and decodes the response. The nested result is
// returned verbatim; shape validation is left to the caller.
func (c *Client) Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	resp, _, err := c.SubmitWithResult(ctx, req)
	return resp, err
}

// SubmitWithResult is Submit that also reports status, sizes and timing.
// The Result is non-nil whenever the request reached the network.
func (c *Client) SubmitWithResult(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, *Result, error) {
	startTime := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, nil, &RequestFailed{Cause: fmt.Errorf("failed to create request: %w", err)}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	// The encoder owns the content type (multipart boundary)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if id := SubmissionID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	logger := c.logger.With("submission", SubmissionID(ctx), "mode", string(req.Mode), "encoding", string(req.Encoding))
	logger.Debug("submitting analysis", "endpoint", c.endpoint, "size", len(req.Body))

	result := &Result{RequestSize: len(req.Body)}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		result.Duration = time.Since(startTime).Milliseconds()
		logger.Warn("analysis transport failure", "error", err, "duration_ms", result.Duration)
		return nil, result, &RequestFailed{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	result.Duration = time.Since(startTime).Milliseconds()
	result.Status = resp.StatusCode
	result.Body = body
	result.ResponseSize = len(body)
	if err != nil {
		logger.Warn("failed to read analysis response", "status", resp.StatusCode, "error", err)
		return nil, result, &RequestFailed{Status: resp.StatusCode, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}

	if !IsSuccessStatus(resp.StatusCode) {
		logger.Warn("analysis rejected", "status", resp.StatusCode, "duration_ms", result.Duration)
		return nil, result, &RequestFailed{Status: resp.StatusCode}
	}

	var analysis types.AnalysisResponse
	if err := json.Unmarshal(body, &analysis); err != nil {
		logger.Warn("analysis response is not JSON", "status", resp.StatusCode, "error", err)
		return nil, result, &RequestFailed{Status: resp.StatusCode, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}

	logger.Info("analysis completed", "status", resp.StatusCode, "response_mode", analysis.Mode, "duration_ms", result.Duration)
	return &analysis, result, nil
}

// buildHTTPClient creates an HTTP client with optional TLS/mTLS configuration
// and bearer authentication
func buildHTTPClient(cfg ClientConfig) (*http.Client, error) {
	var transport http.RoundTripper = cfg.Transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLS != nil {
			tlsCfg, err := buildTLSConfig(cfg.TLS)
			if err != nil {
				return nil, err
			}
			base.TLSClientConfig = tlsCfg
		}
		transport = base
	}

	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

func buildTLSConfig(cfg *types.TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	// Load client certificate if provided (for mTLS)
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	// Load CA certificate if provided (for server verification)
	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = caCertPool
	}

	return tlsCfg, nil
}

// FormatDuration formats duration in milliseconds to human-readable string
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.2fs", seconds)
}

// FormatSize formats byte size to human-readable string
func FormatSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.2fKB", float64(bytes)/1024.0)
	}
	return fmt.Sprintf("%.2fMB", float64(bytes)/(1024.0*1024.0))
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
