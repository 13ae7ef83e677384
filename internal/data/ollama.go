package data

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/scamdefender/sheriff/internal/biz/repo"
)

// ollamaRepo talks to an Ollama server's /api/generate endpoint
type ollamaRepo struct {
	baseURL string
	client  *retryablehttp.Client
	guard   *guard
	logger  *zap.Logger
}

type ollamaOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Images  []string       `json:"images,omitempty"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaRepo creates a backend for an Ollama server
func NewOllamaRepo(baseURL string, opts BackendOptions, logger *zap.Logger) repo.BackendRepo {
	logger = logger.Named("ollama")

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = leveledZap{logger.Sugar()}
	// Exhausted retries surface the last response so its status can be reported
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &ollamaRepo{
		baseURL: baseURL,
		client:  client,
		guard:   newGuard("ollama", opts, logger),
		logger:  logger,
	}
}

// Generate runs a non-streaming completion
func (r *ollamaRepo) Generate(ctx context.Context, req repo.GenerateRequest) (string, error) {
	body := ollamaGenerateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
	}
	if req.Temperature != nil {
		body.Options = &ollamaOptions{Temperature: req.Temperature}
	}
	for _, img := range req.Images {
		body.Images = append(body.Images, base64.StdEncoding.EncodeToString(img))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	return r.guard.do(ctx, func(ctx context.Context) (string, error) {
		httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := r.client.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("ollama request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return "", &repo.StatusError{Code: resp.StatusCode}
		}

		var out ollamaGenerateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode ollama response: %w", err)
		}
		return out.Response, nil
	})
}

// leveledZap adapts zap to retryablehttp's leveled logger. Request errors are
// downgraded to warn since they are retried.
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}
