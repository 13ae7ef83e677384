package mcp

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scamdefender/sheriff/internal/biz/domain"
)

// Classifier is the classification gateway as seen by the tools
type Classifier interface {
	ClassifyText(ctx context.Context, text string) domain.Verdict
	ClassifyUsername(ctx context.Context, username string) domain.Verdict
	ClassifyImage(ctx context.Context, msg domain.MessageRef, att domain.Attachment) domain.Verdict
}

// ClassifierServer exposes the classification gateway as MCP tools, so prompts
// and keyword lists can be tried without a chat platform
type ClassifierServer struct {
	server     *mcp.Server
	classifier Classifier
}

// NewServer creates a new classifier MCP server
func NewServer(classifier Classifier, version string) *ClassifierServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sheriff-classifier",
		Version: version,
	}, nil)

	s := &ClassifierServer{server: server, classifier: classifier}
	s.registerTools()
	return s
}

func (s *ClassifierServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_text",
		Description: "Classify a chat message the way the moderation bot would. Returns safe, reason and verdict kind.",
	}, s.handleClassifyText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_username",
		Description: "Classify a display name the way the moderation bot would.",
	}, s.handleClassifyUsername)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_image_url",
		Description: "Download an image and classify it: vision description, tech-support scam screen, keyword and subject checks, then text classification of the description.",
	}, s.handleClassifyImageURL)
}

// TextInput is the input for classify_text
type TextInput struct {
	Text string `json:"text" jsonschema:"The message text to classify"`
}

// UsernameInput is the input for classify_username
type UsernameInput struct {
	Username string `json:"username" jsonschema:"The display name to classify"`
}

// ImageInput is the input for classify_image_url
type ImageInput struct {
	URL         string `json:"url" jsonschema:"Public URL of the image"`
	ContentType string `json:"content_type,omitempty" jsonschema:"MIME type, defaults to image/png"`
}

// VerdictOutput is the result of every classify tool
type VerdictOutput struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
	Kind   string `json:"kind"`
}

func toOutput(v domain.Verdict) VerdictOutput {
	return VerdictOutput{Safe: v.Safe, Reason: v.Reason, Kind: v.Kind.String()}
}

func (s *ClassifierServer) handleClassifyText(ctx context.Context, req *mcp.CallToolRequest, input TextInput) (*mcp.CallToolResult, VerdictOutput, error) {
	return nil, toOutput(s.classifier.ClassifyText(ctx, input.Text)), nil
}

func (s *ClassifierServer) handleClassifyUsername(ctx context.Context, req *mcp.CallToolRequest, input UsernameInput) (*mcp.CallToolResult, VerdictOutput, error) {
	return nil, toOutput(s.classifier.ClassifyUsername(ctx, input.Username)), nil
}

func (s *ClassifierServer) handleClassifyImageURL(ctx context.Context, req *mcp.CallToolRequest, input ImageInput) (*mcp.CallToolResult, VerdictOutput, error) {
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return nil, VerdictOutput{}, fmt.Errorf("url must be http or https")
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, VerdictOutput{}, fmt.Errorf("content_type %q is not an image", contentType)
	}

	att := domain.Attachment{
		ID:          input.URL,
		URL:         input.URL,
		ContentType: contentType,
		Filename:    path.Base(input.URL),
	}
	return nil, toOutput(s.classifier.ClassifyImage(ctx, domain.MessageRef{}, att)), nil
}

// Run starts the MCP server with stdio transport
func (s *ClassifierServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
