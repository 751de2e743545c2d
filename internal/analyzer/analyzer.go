// Package analyzer talks to the external document analyzer that turns an
// uploaded strategy document into an analysis payload.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/wailsapp/mimetype"

	"github.com/starford/onepage/internal/analysis"
	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
)

// DefaultMaxBytes is the largest document accepted for analysis.
const DefaultMaxBytes = 10 << 20

// maxResponse caps the analyzer response body.
const maxResponse = 10 << 20

// DefaultExtensions lists the document types the analyzer understands.
var DefaultExtensions = []string{"pdf", "docx", "doc", "png", "jpg", "jpeg", "tiff"}

// Config points the client at the analyzer.
type Config struct {
	URL        string
	Timeout    time.Duration
	MaxBytes   int64
	Extensions []string
}

// DefaultConfig returns the stock upload limits with no analyzer URL.
func DefaultConfig() Config {
	return Config{
		Timeout:    2 * time.Minute,
		MaxBytes:   DefaultMaxBytes,
		Extensions: DefaultExtensions,
	}
}

// Client forwards documents to the analyzer.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates an analyzer client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// MaxBytes returns the upload size limit in effect.
func (c *Client) MaxBytes() int64 { return c.cfg.MaxBytes }

// ValidateUpload checks a document name and size before anything is sent.
func (c *Client) ValidateUpload(name string, size int64) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !lo.Contains(c.cfg.Extensions, ext) {
		return fmt.Errorf("analyzer: unsupported file type %q (allowed: %s): %w",
			ext, strings.Join(c.cfg.Extensions, ", "), apperr.ErrInvalid)
	}
	if size <= 0 {
		return fmt.Errorf("analyzer: empty file: %w", apperr.ErrInvalid)
	}
	if size > c.cfg.MaxBytes {
		return fmt.Errorf("analyzer: file too large: %s (max %s): %w",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(c.cfg.MaxBytes)), apperr.ErrInvalid)
	}
	return nil
}

// Analyze validates the document, posts it to the analyzer as the multipart
// field "file" and decodes the returned payload. Every failure past
// validation wraps apperr.ErrUpstream.
func (c *Client) Analyze(ctx context.Context, name string, data []byte) (*models.Analysis, error) {
	if err := c.ValidateUpload(name, int64(len(data))); err != nil {
		return nil, err
	}
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("analyzer: no analyzer url configured: %w", apperr.ErrUpstream)
	}

	body, contentType, err := multipartBody(name, data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("analyzer: request: %v: %w", err, apperr.ErrUpstream)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %v: %w", err, apperr.ErrUpstream)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("analyzer: read response: %v: %w", err, apperr.ErrUpstream)
	}
	c.logger.Info("analyzer: document analysed",
		slog.String("file", name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("analyzer: %s: %w", failureMessage(resp.StatusCode, raw), apperr.ErrUpstream)
	}

	a, err := analysis.Decode(raw, "response.json")
	if err != nil {
		return nil, fmt.Errorf("analyzer: bad response: %v: %w", err, apperr.ErrUpstream)
	}
	return a, nil
}

func multipartBody(name string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("analyzer: build request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("analyzer: build request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("analyzer: build request: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// failureMessage extracts the analyzer's explanation from an error response.
func failureMessage(status int, body []byte) string {
	var msg struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		if msg.Detail != "" {
			return msg.Detail
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	return fmt.Sprintf("failed to analyse document (status %d)", status)
}
