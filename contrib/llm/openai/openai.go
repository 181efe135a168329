package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
)

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		MaxTokens:   2000,
		Temperature: 1,
	}
}

// WithAPIKey sets the api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// WithBaseURL sets the base URL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithModel sets the model.
func (cfg *Config) WithModel(model string) *Config {
	cfg.Model = model
	return cfg
}

// Provider implements llm.StructuredClient backed by the official OpenAI SDK.
type Provider struct {
	config *Config
	client openaisdk.Client
}

var _ llm.StructuredClient = (*Provider)(nil)

// New creates a new OpenAI provider.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: openaisdk.NewClient(opts...),
	}
}

// Complete implements llm.Client.
func (p *Provider) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	params := p.baseParams(msgs)
	return p.complete(ctx, params)
}

// CompleteStructured implements llm.StructuredClient using the JSON-schema
// response format, so the reply always conforms to the requested shape.
func (p *Provider) CompleteStructured(ctx context.Context, msgs []*message.Message, schema *llm.Schema, out any) error {
	if schema == nil || len(schema.Raw) == 0 {
		return fmt.Errorf("structured completion requires a schema")
	}

	params := p.baseParams(msgs)
	jsonSchema := openaisdk.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schema.Name,
		Schema: schema.Raw,
		Strict: param.NewOpt(true),
	}
	if schema.Description != "" {
		jsonSchema.Description = param.NewOpt(schema.Description)
	}
	params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openaisdk.ResponseFormatJSONSchemaParam{
			JSONSchema: jsonSchema,
		},
	}

	raw, err := p.complete(ctx, params)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(raw, out)
}

func (p *Provider) baseParams(msgs []*message.Message) openaisdk.ChatCompletionNewParams {
	converted := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			converted = append(converted, openaisdk.SystemMessage(msg.Content))
		case message.RoleAssistant:
			converted = append(converted, openaisdk.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openaisdk.UserMessage(msg.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: converted,
		Model:    openaisdk.ChatModel(p.config.Model),
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(p.config.MaxTokens)
	}
	return params
}

func (p *Provider) complete(ctx context.Context, params openaisdk.ChatCompletionNewParams) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return completion.Choices[0].Message.Content, nil
}
