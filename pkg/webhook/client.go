package webhook

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kacperjurak/goocclusion/pkg/models"
)

// Client posts figure payloads to a plotting service.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	bufferPool sync.Pool // JSON marshaling buffers
}

// NewClient creates a webhook client with a pooled transport.
func NewClient(url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     false,
	}

	return &Client{
		url:    url,
		logger: logger,
		httpClient: &http.Client{
			Timeout:   45 * time.Second,
			Transport: transport,
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				// Figures carry a few curves of a few hundred bins each.
				return bytes.NewBuffer(make([]byte, 0, 64*1024))
			},
		},
	}
}

// URL returns the target of the client.
func (c *Client) URL() string { return c.url }

// Send posts fig as JSON. Non-finite values are replaced by zero.
func (c *Client) Send(ctx context.Context, fig models.Figure) error {
	payload, replaced := sanitizeFigure(fig)
	if replaced > 0 {
		c.logger.Warn("non-finite values sanitized", zap.String("figure", fig.Name), zap.Int("count", replaced))
	}
	if payload.Time == "" {
		payload.Time = time.Now().Format(time.RFC3339Nano)
	}

	buf := c.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal figure %s: %w", fig.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("webhook sent",
		zap.String("id", payload.ID),
		zap.String("figure", payload.Name),
		zap.Int("curves", len(payload.Curves)),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}
	return nil
}

// sanitizeFigure returns a copy of fig whose curves hold only finite values,
// and the number of values replaced.
func sanitizeFigure(fig models.Figure) (models.Figure, int) {
	var n int
	clean := func(in []float64) []float64 {
		if in == nil {
			return nil
		}
		out := make([]float64, len(in))
		for i, v := range in {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				n++
				continue
			}
			out[i] = v
		}
		return out
	}

	curves := make([]models.Curve, len(fig.Curves))
	for i, c := range fig.Curves {
		c.Frequencies = clean(c.Frequencies)
		c.Magnitude = clean(c.Magnitude)
		c.Lower = clean(c.Lower)
		c.Upper = clean(c.Upper)
		curves[i] = c
	}
	fig.Curves = curves
	return fig, n
}
