package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"scout/internal/domain"
)

// validatingTool rejects arguments that do not match the wrapped tool's
// parameter schema before the tool ever sees them.
type validatingTool struct {
	domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation returns t guarded by its own parameter schema, or t
// itself when it declares none.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	params := t.Schema().Parameters
	if len(params) == 0 || string(params) == "null" {
		return t, nil
	}
	schema, err := jsonschema.NewCompiler().Compile(params)
	if err != nil {
		return nil, fmt.Errorf("tool %s: compile parameter schema: %w", t.Name(), err)
	}
	return &validatingTool{Tool: t, schema: schema}, nil
}

func (v *validatingTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	var args any
	if err := json.Unmarshal(params, &args); err != nil {
		return ErrResult("invalid JSON arguments: %v", err)
	}
	if res := v.schema.Validate(args); !res.IsValid() {
		return ErrResult("schema validation failed: %v", res.Error())
	}
	return v.Tool.Execute(ctx, params)
}
