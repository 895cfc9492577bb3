package analysisclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized is returned when the service rejects the credentials.
	// Callers must never fall back to local estimation on this error.
	ErrUnauthorized = errors.New("analysis service rejected credentials")
	// ErrUpstream covers every other failure of the service
	ErrUpstream = errors.New("analysis service unavailable")
)

// Mode selects the depth of the external analysis
type Mode string

const (
	ModeBasic   Mode = "basic"
	ModePremium Mode = "premium"
)

// ParseMode maps a form value onto a Mode, defaulting to premium
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(s))) == ModeBasic {
		return ModeBasic
	}
	return ModePremium
}

// Economy is the cost configuration sent along with the file
type Economy struct {
	LaborCostPerHour float64           `json:"labor_cost_per_hour"`
	OverheadRate     float64           `json:"overhead_rate,omitempty"`
	TechCostsAnnual  float64           `json:"tech_costs_annual,omitempty"`
	CustomerSegments map[string]string `json:"customer_segments,omitempty"`
}

// Request is one analysis call. Data holds the CSV contents so the call can
// be repeated.
type Request struct {
	FileName string
	Data     []byte
	Economy  Economy
	Mode     Mode
}

// Analyzer runs an external analysis and returns its raw result
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (map[string]any, error)
}

// Config holds the service location and credentials
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the external analysis service
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	logger   zerolog.Logger
}

// New creates a client for the service at cfg.BaseURL
func New(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type analysisResponse struct {
	User    string         `json:"user"`
	Results map[string]any `json:"results"`
}

// Analyze uploads the file and returns the service's results object. The
// call is made once; retries belong to the caller.
func (c *Client) Analyze(ctx context.Context, req Request) (map[string]any, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analysis", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.baseURL).Msg("failed to reach analysis service")
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Warn().Int("status", resp.StatusCode).Msg("analysis service rejected credentials")
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("analysis service returned an error")
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %w", ErrUpstream, err)
	}
	if out.Results == nil {
		return nil, fmt.Errorf("%w: response has no results", ErrUpstream)
	}

	c.logger.Info().
		Str("file", req.FileName).
		Str("mode", string(req.Mode)).
		Dur("duration", time.Since(start)).
		Msg("external analysis completed")

	return out.Results, nil
}

func encodeForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := req.FileName
	if name == "" {
		name = "interactions.csv"
	}
	part, err := w.CreateFormFile("csv_file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", err
	}

	economy, err := json.Marshal(req.Economy)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("economy_json", string(economy)); err != nil {
		return nil, "", err
	}

	mode := req.Mode
	if mode == "" {
		mode = ModePremium
	}
	if err := w.WriteField("analysis", string(mode)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
