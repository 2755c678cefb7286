// Package genai is a client for a Gemini-style generateContent REST API.
// It covers text generation with optional search grounding and inline image
// generation.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finsite/backend/internal/domain/insight"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/finsite/backend/internal/infrastructure/restclient"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by every call when no API key is set
var ErrNotConfigured = errors.New("genai: no API key configured")

// ErrEmptyResponse is returned when the model produced no usable content
var ErrEmptyResponse = errors.New("genai: empty response")

// Config configures a Client
type Config struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
}

// Client talks to the generative AI service
type Client struct {
	rest       *restclient.Client
	apiKey     string
	textModel  string
	imageModel string
	logger     *zap.Logger
}

// New creates a Client. A missing API key is not an error; calls fail with ErrNotConfigured.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rest, err := restclient.New(restclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: %w", err)
	}
	return &Client{
		rest:       rest,
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		logger:     log.Named("genai"),
	}, nil
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// TextRequest is one text generation call
type TextRequest struct {
	System     string
	History    []insight.ChatMessage
	Prompt     string
	WithSearch bool // Ground the answer with web search and return its sources
}

// TextResult is the generated text and any grounding sources
type TextResult struct {
	Text    string
	Sources []insight.Source
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type contentBlock struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateRequest struct {
	SystemInstruction *contentBlock     `json:"systemInstruction,omitempty"`
	Contents          []contentBlock    `json:"contents"`
	Tools             []tool            `json:"tools,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content           contentBlock `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// GenerateText runs a text generation call
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (TextResult, error) {
	const op = "genai.generate_text"
	if !c.Enabled() {
		return TextResult{}, ErrNotConfigured
	}

	body := generateRequest{}
	if req.System != "" {
		body.SystemInstruction = &contentBlock{Parts: []part{{Text: req.System}}}
	}
	for _, msg := range req.History {
		body.Contents = append(body.Contents, contentBlock{Role: string(msg.Role), Parts: []part{{Text: msg.Text}}})
	}
	body.Contents = append(body.Contents, contentBlock{Role: string(insight.RoleUser), Parts: []part{{Text: req.Prompt}}})
	if req.WithSearch {
		body.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	resp, err := c.generate(ctx, op, c.textModel, body)
	if err != nil {
		return TextResult{}, err
	}

	var result TextResult
	var texts []string
	seen := map[string]bool{}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			result.Sources = append(result.Sources, insight.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
		// Only the first candidate is used
		break
	}
	result.Text = strings.TrimSpace(strings.Join(texts, ""))
	if result.Text == "" {
		return TextResult{}, ErrEmptyResponse
	}
	return result, nil
}

// GenerateImage renders prompt and returns the image as a data URI
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	const op = "genai.generate_image"
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	body := generateRequest{
		Contents:         []contentBlock{{Role: string(insight.RoleUser), Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}
	resp, err := c.generate(ctx, op, c.imageModel, body)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", ErrEmptyResponse
}

func (c *Client) generate(ctx context.Context, op, model string, body generateRequest) (*generateResponse, error) {
	resp, err := c.rest.Do(ctx, restclient.Request{
		Method:  http.MethodPost,
		Path:    "/models/" + url.PathEscape(model) + ":generateContent",
		Headers: map[string]string{"x-goog-api-key": c.apiKey},
		Body:    body,
	})
	if err != nil {
		return nil, c.fail(ctx, shared.NewTransportError(op, err))
	}
	if !resp.IsSuccess() {
		return nil, c.fail(ctx, shared.NewStatusError(op, resp.StatusCode, resp.ErrorMessage()))
	}
	var out generateResponse
	if err := resp.Decode(&out); err != nil {
		return nil, c.fail(ctx, shared.NewDecodeError(op, resp.StatusCode, err))
	}
	return &out, nil
}

func (c *Client) fail(ctx context.Context, err *shared.AccessError) error {
	logger.WithLogger(ctx, c.logger).Warn("AI call failed", logger.ErrorFields(err)...)
	return err
}
