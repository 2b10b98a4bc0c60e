// pkg/llm/gemini.go

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Service streams chat completions from Gemini. It satisfies genclient.ChatProvider.
type Service struct {
	client *genai.Client
	model  string
}

var _ genclient.ChatProvider = (*Service)(nil)

// NewGeminiService creates a new Gemini AI service instance.
func NewGeminiService(ctx context.Context, apiKey, model string) (*Service, error) {
	if apiKey == "" {
		return nil, apperr.NewConfigurationError("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Service{client: client, model: model}, nil
}

// Stream maps the conversation onto a Gemini chat session. System messages
// become the system instruction; the last message is the one sent.
func (s *Service) Stream(ctx context.Context, messages []genclient.Message, jsonMode bool, onChunk func(string)) error {
	if len(messages) == 0 {
		return apperr.NewValidationError("at least one message is required", nil)
	}

	model := s.client.GenerativeModel(s.model)
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	var system []string
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case genclient.RoleSystem:
			system = append(system, m.Content)
		case genclient.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	last := messages[len(messages)-1]
	if last.Role == genclient.RoleSystem {
		system = append(system, last.Content)
		last = genclient.Message{Role: genclient.RoleUser, Content: "Begin."}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	session := model.StartChat()
	session.History = history

	log.Debugf("Service.Stream: model=%s history=%d json=%v", s.model, len(history), jsonMode)
	iter := session.SendMessageStream(ctx, genai.Text(last.Content))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			log.Errorf("Service.Stream: gemini stream failed: %v", err)
			return apperr.NewTransportError("gemini stream failed", 0, err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok && text != "" {
					onChunk(string(text))
				}
			}
		}
	}
}

// Close gracefully closes the underlying Gemini client.
func (s *Service) Close() error {
	log.Info("Closing Gemini AI service client.")
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
