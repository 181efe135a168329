package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		Temperature: 1,
	}
}

// Provider implements llm.StructuredClient backed by the official Anthropic SDK.
// Claude has no native JSON-schema response mode, so structured completions
// embed the schema in the instruction and decode the reply.
type Provider struct {
	config *Config
	client anthropic.Client
}

var _ llm.StructuredClient = (*Provider)(nil)

// New creates a new Claude provider.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(opts...),
	}
}

// Complete implements llm.Client.
func (p *Provider) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	var systemBlocks []anthropic.TextBlockParam
	conversation := make([]anthropic.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
		case message.RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: p.config.MaxTokens,
		Messages:  conversation,
	}
	if len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content returned from Claude")
	}
	return sb.String(), nil
}

// CompleteStructured implements llm.StructuredClient.
func (p *Provider) CompleteStructured(ctx context.Context, msgs []*message.Message, schema *llm.Schema, out any) error {
	if schema == nil || len(schema.Raw) == 0 {
		return fmt.Errorf("structured completion requires a schema")
	}

	rawSchema, err := json.Marshal(schema.Raw)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	augmented := make([]*message.Message, 0, len(msgs)+1)
	augmented = append(augmented, msgs...)
	augmented = append(augmented, message.User(fmt.Sprintf(
		"Respond with JSON only, no prose, matching this JSON schema:\n%s", rawSchema)))

	reply, err := p.Complete(ctx, augmented)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(reply, out)
}
