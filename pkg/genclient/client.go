// pkg/genclient/client.go

package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config carries the endpoints and credentials of the generation backends.
type Config struct {
	ArkAPIKey     string
	ArkBaseURL    string
	ImageModel    string
	VideoModel    string
	SpeechURL     string
	SpeechAppID   string
	SpeechToken   string
	SpeechCluster string
}

// Client is a thin typed facade over chat, image, video job and speech
// backends. It holds no business logic.
type Client struct {
	cfg           Config
	chat          ChatProvider
	httpClient    *http.Client
	imageLimiter  *rate.Limiter
	speechLimiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithChatProvider selects the backend used by ChatStream and ChatComplete.
func WithChatProvider(p ChatProvider) Option {
	return func(c *Client) {
		c.chat = p
	}
}

func WithImageRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.imageLimiter = newLimiter(requestsPerMinute, burst)
	}
}

func WithSpeechRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.speechLimiter = newLimiter(requestsPerMinute, burst)
	}
}

func newLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.SpeechURL == "" {
		cfg.SpeechURL = DefaultSpeechURL
	}
	if cfg.SpeechCluster == "" {
		cfg.SpeechCluster = "volcano_tts"
	}
	cfg.ArkBaseURL = strings.TrimRight(cfg.ArkBaseURL, "/")

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		imageLimiter:  rate.NewLimiter(rate.Inf, 1),
		speechLimiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	log.WithFields(log.Fields{
		"ark_base_url": c.cfg.ArkBaseURL,
		"image_model":  c.cfg.ImageModel,
		"video_model":  c.cfg.VideoModel,
		"image_rate":   fmt.Sprintf("%v req/s", c.imageLimiter.Limit()),
		"speech_rate":  fmt.Sprintf("%v req/s", c.speechLimiter.Limit()),
	}).Debug("NewClient: generation client initialized")
	return c
}

// postJSON sends body to url and decodes a 2xx reply into out. Non-2xx replies
// become a TransportError carrying the upstream message when there is one.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.NewTransportError(fmt.Sprintf("%s %s failed", req.Method, req.URL.Path), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.NewTransportError("decoding upstream reply", resp.StatusCode, err)
	}
	return nil
}

// upstreamError reads a failed reply and surfaces the server's own message.
// It understands {"error":"..."}, {"error":{"message":"..."}} and {"message":"..."}.
func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := upstreamMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("upstream returned %s", resp.Status)
	}
	return apperr.NewTransportError(msg, resp.StatusCode, nil)
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return payload.Message
}

func (c *Client) arkHeaders() (map[string]string, error) {
	if c.cfg.ArkAPIKey == "" {
		return nil, apperr.NewConfigurationError("ARK_API_KEY is not configured")
	}
	return map[string]string{"Authorization": "Bearer " + c.cfg.ArkAPIKey}, nil
}
