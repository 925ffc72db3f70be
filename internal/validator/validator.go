// Package validator guards the data contracts between the Go pipeline, the
// policy engine and the emitted artifacts. A mismatch is reported before
// anything is evaluated or written.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaFS embed.FS

//go:embed facts_schema.cue
var factsSchemaFS embed.FS

// Validator checks policy input against the #Input definition.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New creates a new Validator with the embedded CUE schema
func New() (*Validator, error) {
	ctx, schema, err := compileSchema(schemaFS, "schema.cue")
	if err != nil {
		return nil, err
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate checks that the input data conforms to the CUE schema.
func (v *Validator) Validate(data interface{}) error {
	return validate(v.ctx, v.schema, "#Input", data)
}

// ValidateJSON validates JSON bytes directly against the schema
func (v *Validator) ValidateJSON(jsonBytes []byte) error {
	return validateJSON(v.ctx, v.schema, "#Input", jsonBytes)
}

// ValidationErrors returns detailed information about all validation errors
func (v *Validator) ValidationErrors(data interface{}) []string {
	err := v.Validate(data)
	if err == nil {
		return nil
	}
	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	if len(errs) == 0 {
		errs = append(errs, err.Error())
	}
	return errs
}

// FactsValidator validates relational fact tables against the facts schema.
type FactsValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewFactsValidator creates a validator for relational fact tables.
func NewFactsValidator() (*FactsValidator, error) {
	ctx, schema, err := compileSchema(factsSchemaFS, "facts_schema.cue")
	if err != nil {
		return nil, err
	}
	return &FactsValidator{ctx: ctx, schema: schema}, nil
}

// Validate checks that the fact tables conform to the facts schema.
func (v *FactsValidator) Validate(data interface{}) error {
	return validate(v.ctx, v.schema, "#FactTables", data)
}

// ValidateJSON checks a serialized fact table document, such as a previous
// snapshot read back from disk.
func (v *FactsValidator) ValidateJSON(jsonBytes []byte) error {
	return validateJSON(v.ctx, v.schema, "#FactTables", jsonBytes)
}

func compileSchema(fsys embed.FS, name string) (*cue.Context, cue.Value, error) {
	ctx := cuecontext.New()

	schemaBytes, err := fsys.ReadFile(name)
	if err != nil {
		return nil, cue.Value{}, fmt.Errorf("loading embedded schema %s: %w", name, err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, cue.Value{}, fmt.Errorf("compiling schema %s: %w", name, schema.Err())
	}
	return ctx, schema, nil
}

func validate(ctx *cue.Context, schema cue.Value, def string, data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return validateJSON(ctx, schema, def, jsonBytes)
}

func validateJSON(ctx *cue.Context, schema cue.Value, def string, jsonBytes []byte) error {
	dataValue := ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling data as CUE: %w", dataValue.Err())
	}

	defValue := schema.LookupPath(cue.ParsePath(def))
	if defValue.Err() != nil {
		return fmt.Errorf("looking up %s definition: %w", def, defValue.Err())
	}

	unified := defValue.Unify(dataValue)
	if err := unified.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
