package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sweetpotato0/ragalytics/llm"
	"github.com/sweetpotato0/ragalytics/message"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 1,
	}
}

// Provider implements llm.StructuredClient backed by the Gemini SDK.
type Provider struct {
	config *Config
	client *genai.Client
}

var _ llm.StructuredClient = (*Provider)(nil)

// New creates a new Gemini provider. The SDK dials lazily but requires a
// context for client construction.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Complete implements llm.Client.
func (p *Provider) Complete(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.generate(ctx, msgs, false)
}

// CompleteStructured implements llm.StructuredClient. Gemini is switched to a
// JSON response MIME type and the schema is embedded in the instruction.
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

	reply, err := p.generate(ctx, augmented, true)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(reply, out)
}

func (p *Provider) generate(ctx context.Context, msgs []*message.Message, jsonMode bool) (string, error) {
	model := p.client.GenerativeModel(p.config.Model)
	if p.config.Temperature > 0 {
		model.SetTemperature(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	var systemParts []genai.Part
	var userParts []genai.Part
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemParts = append(systemParts, genai.Text(msg.Content))
		default:
			userParts = append(userParts, genai.Text(msg.Content))
		}
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}
	if len(userParts) == 0 {
		return "", fmt.Errorf("at least one non-system message is required")
	}

	resp, err := model.GenerateContent(ctx, userParts...)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content returned from Gemini")
	}
	return sb.String(), nil
}
