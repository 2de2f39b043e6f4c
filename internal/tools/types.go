// Package tools defines the function-calling types shared by the LLM
// providers and the agent loop, the registry of server-executed tools, and
// the routing split between server-side and client-side tool calls.
//
// The wire shapes follow the OpenAI function-calling format, which the other
// providers translate from.
package tools

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool is the schema of a callable function as described to the model.
type Tool struct {
	// Type is almost always "function".
	Type string `json:"type"`
	// Function holds the function's definition.
	Function Function `json:"function"`
}

// Function names and describes a callable tool. The model picks tools by
// these descriptions, so they carry the usage guidance.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Parameters is the JSON Schema of the function's arguments.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema used for tool parameters. For the
// top-level parameters object, Type is always "object".
type JSONSchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	// Properties maps parameter names to their schemas.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required lists the parameter names that must be present.
	Required []string `json:"required,omitempty"`
}

// ToolCall is a request from the model to run one tool. The ID ties the
// eventual tool result back to this call in the conversation history.
type ToolCall struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Function carries the name and arguments the model chose.
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and raw arguments of a requested call.
type ToolCallFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON object encoded as a string, exactly as the model
	// produced it. Executors unmarshal it into their own argument structs.
	Arguments string `json:"arguments"`
}

// NewFunctionTool builds a Tool with the "function" type filled in.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
