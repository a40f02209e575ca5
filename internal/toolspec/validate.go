package toolspec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateArgs checks a tool call's decoded arguments against its
// ToolDesc. When PayloadSchema is set, args are validated against it with
// jsonschema/v6 (the teacher's own schema-validation dependency); otherwise
// validation falls back to checking ParametersRequired presence. The
// returned issues mirror the teacher's tools.FieldIssue shape so error
// messages stay uniform across both validation paths.
func ValidateArgs(desc ToolDesc, args map[string]any) ([]FieldIssue, error) {
	if len(desc.PayloadSchema) > 0 {
		return validateAgainstSchema(desc.PayloadSchema, args)
	}
	return validateRequiredFields(desc.ParametersRequired, args), nil
}

func validateRequiredFields(required []string, args map[string]any) []FieldIssue {
	var issues []FieldIssue
	for _, field := range required {
		if _, ok := args[field]; !ok {
			issues = append(issues, FieldIssue{Field: field, Constraint: "missing_field"})
		}
	}
	return issues
}

func validateAgainstSchema(schema []byte, args map[string]any) ([]FieldIssue, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tool-payload.json", bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("toolspec: compile schema: %w", err)
	}
	sch, err := compiler.Compile("tool-payload.json")
	if err != nil {
		return nil, fmt.Errorf("toolspec: compile schema: %w", err)
	}

	// Round-trip through encoding/json so numeric types match what the
	// schema validator expects (json.Number-free, canonical Go values).
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("toolspec: marshal args: %w", err)
	}
	var inst any
	if err := json.Unmarshal(raw, &inst); err != nil {
		return nil, fmt.Errorf("toolspec: unmarshal args: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, err
		}
		return issuesFromValidationError(ve), nil
	}
	return nil, nil
}

func issuesFromValidationError(ve *jsonschema.ValidationError) []FieldIssue {
	var issues []FieldIssue
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e == nil {
			return
		}
		field := "/"
		if len(e.InstanceLocation) > 0 {
			field = "/" + joinPath(e.InstanceLocation)
		}
		issues = append(issues, FieldIssue{Field: field, Constraint: "invalid_field_type"})
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	return issues
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
