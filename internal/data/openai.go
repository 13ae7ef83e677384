package data

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// openAIRepo talks to any OpenAI-compatible chat completions endpoint
type openAIRepo struct {
	client *openai.Client
	guard  *guard
}

// NewOpenAIRepo creates a backend for an OpenAI-compatible API
func NewOpenAIRepo(apiKey, baseURL string, opts BackendOptions, logger *zap.Logger) repo.BackendRepo {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &openAIRepo{
		client: openai.NewClientWithConfig(config),
		guard:  newGuard("openai", opts, logger.Named("openai")),
	}
}

// Generate sends the prompt as a single user message
func (r *openAIRepo) Generate(ctx context.Context, req repo.GenerateRequest) (string, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.Images) == 0 {
		msg.Content = req.Prompt
	} else {
		msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: req.Prompt,
		})
		for _, img := range req.Images {
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL(img)},
			})
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: []openai.ChatCompletionMessage{msg},
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
		if chatReq.Temperature == 0 {
			// Zero is dropped by omitempty
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	return r.guard.do(ctx, func(ctx context.Context) (string, error) {
		resp, err := r.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return "", statusFromOpenAI(err)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func statusFromOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &repo.StatusError{Code: apiErr.HTTPStatusCode}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &repo.StatusError{Code: reqErr.HTTPStatusCode}
	}
	return fmt.Errorf("chat completion: %w", err)
}

func dataURL(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}
