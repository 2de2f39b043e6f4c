package tools

import "context"

// ToolExecutor is the contract every server-side tool implements. The
// registry manages tools through this interface without knowing their
// concrete types.
type ToolExecutor interface {
	// Definition returns the tool's schema, which is bound to the model so
	// it knows the tool's name, purpose and arguments.
	Definition() Tool

	// Execute runs the tool. arguments is the JSON string the model
	// produced for the call. The returned string goes back to the model as
	// the tool result. Implementations that reach external services must
	// honor ctx cancellation.
	Execute(ctx context.Context, arguments string) (string, error)
}
