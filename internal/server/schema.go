package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchema describes the struct accepted by every ExtractionService
// method. ExtractFields additionally requires "fields".
func requestSchema(op operation) map[string]any {
	required := []string{"filename", "content"}
	if op == opExtractFields {
		required = append(required, "fields")
	}
	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": required,
		"properties": map[string]any{
			"filename": map[string]any{"type": "string", "minLength": 1},
			"content":  map[string]any{"type": "string", "minLength": 1, "contentEncoding": "base64"},
			"fields":   map[string]any{"type": "string", "pattern": `\S`},
			"profile":  map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}
}

// compileSchemas builds one validator per operation.
func compileSchemas() (map[operation]*jsonschema.Schema, error) {
	out := make(map[operation]*jsonschema.Schema, 3)
	compiler := jsonschema.NewCompiler()
	for _, op := range []operation{opTranscribe, opExtract, opExtractFields} {
		b, err := json.Marshal(requestSchema(op))
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		url := string(op) + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema: %w", err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema: %w", err)
		}
		out[op] = schema
	}
	return out, nil
}
