package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/qingyun-ai/weather-agent/internal/tools"
)

// GeminiClient talks to Google's Gemini models (gemini-*) through the
// official SDK instead of a hand-rolled wire client.
type GeminiClient struct {
	client *genai.Client
}

// Statically verify that GeminiClient implements the LLMClient interface.
var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Generate performs one blocking request against the model named in config.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	model := c.client.GenerativeModel(config.Model)
	if config.Temperature != nil {
		model.SetTemperature(*config.Temperature)
	}
	if config.TopP != nil {
		model.SetTopP(*config.TopP)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}
	if len(availableTools) > 0 {
		model.Tools = toGeminiTools(availableTools)
	}

	systemPrompt, history, lastParts, err := toGeminiHistory(messages)
	if err != nil {
		return nil, err
	}
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	chat := model.StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(resp)
}

// toGeminiHistory converts the conversation to the SDK's content format. The
// system message becomes the SystemInstruction, the final message becomes the
// parts passed to SendMessage, and everything in between is chat history.
//
// Role mapping: assistant turns become "model" content carrying FunctionCall
// parts for their tool calls; tool results go back as "user" content carrying
// FunctionResponse parts keyed by tool name (Gemini has no call IDs).
func toGeminiHistory(messages []Message) (string, []*genai.Content, []genai.Part, error) {
	var systemPrompt string
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if tc.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return "", nil, nil, fmt.Errorf("tool call %s has non-JSON arguments: %w", tc.ID, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case RoleTool:
			// The response must be an object, not a plain string.
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []genai.Part{genai.FunctionResponse{
					Name:     msg.Name,
					Response: map[string]any{"content": msg.Content},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	if len(contents) == 0 {
		return "", nil, nil, errors.New("no messages to send to Gemini")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return "", nil, nil, errors.New("conversation must end with a user or tool message")
	}
	return systemPrompt, contents[:len(contents)-1], last.Parts, nil
}

// toGeminiTools converts the internal tool definitions to the SDK's format.
func toGeminiTools(availableTools []tools.Tool) []*genai.Tool {
	var geminiTools []*genai.Tool
	for _, t := range availableTools {
		geminiTools = append(geminiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  convertSchema(t.Function.Parameters),
			}},
		})
	}
	return geminiTools
}

// convertSchema maps the JSON Schema subset used for tool parameters onto
// the SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	case "array":
		genaiSchema.Type = genai.TypeArray
	}
	if s.Properties != nil {
		genaiSchema.Properties = make(map[string]*genai.Schema)
		for k, v := range s.Properties {
			genaiSchema.Properties[k] = convertSchema(*v)
		}
	}
	return genaiSchema
}

// parseGeminiResponse converts an SDK response into a GenerationResult.
// Gemini does not assign tool-call IDs, so fresh UUIDs are minted; the tool
// result finds its way back through the function name.
func parseGeminiResponse(resp *genai.GenerateContentResponse) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal gemini tool call args: %w", err)
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   uuid.NewString(),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(args),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}
	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return result, nil
}
