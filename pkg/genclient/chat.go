// pkg/genclient/chat.go

package genclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	log "github.com/sirupsen/logrus"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// ChatProvider streams one completion. onChunk is called for every text
// fragment in arrival order. After an error no further chunks are delivered.
type ChatProvider interface {
	Stream(ctx context.Context, messages []Message, jsonMode bool, onChunk func(string)) error
}

// ChatStream streams a completion from the configured provider.
func (c *Client) ChatStream(ctx context.Context, messages []Message, jsonMode bool, onChunk func(string)) error {
	if c.chat == nil {
		return apperr.NewConfigurationError("no chat provider configured")
	}
	return c.chat.Stream(ctx, messages, jsonMode, onChunk)
}

// ChatComplete is the blocking form of ChatStream.
func (c *Client) ChatComplete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	var sb strings.Builder
	if err := c.ChatStream(ctx, messages, jsonMode, func(chunk string) { sb.WriteString(chunk) }); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOpenAIProvider(apiKey, baseURL, model string, hc *http.Client) *OpenAIProvider {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: hc,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, jsonMode bool, onChunk func(string)) error {
	if p.apiKey == "" {
		return apperr.NewConfigurationError("LLM_API_KEY is not configured")
	}

	body := chatRequest{Model: p.model, Messages: messages, Stream: true}
	if jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	log.Debugf("OpenAIProvider.Stream: model=%s messages=%d json=%v", p.model, len(messages), jsonMode)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperr.NewTransportError("chat request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return upstreamError(resp)
	}
	return readEventStream(resp.Body, onChunk)
}

// readEventStream decodes "data:" lines of an OpenAI event stream until
// [DONE] or EOF.
func readEventStream(r io.Reader, onChunk func(string)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, ":") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return nil
			}
			var chunk chatChunk
			if jsonErr := json.Unmarshal([]byte(data), &chunk); jsonErr == nil && len(chunk.Choices) > 0 {
				if content := chunk.Choices[0].Delta.Content; content != "" {
					onChunk(content)
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return apperr.NewTransportError("chat stream interrupted", 0, err)
		}
	}
}
