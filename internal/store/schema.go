package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema describes the persisted task document. Strict-mode
// loads validate against it so a structurally wrong document is
// rejected before any mutation can rewrite it.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "completed"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "text": {"type": "string", "minLength": 1},
      "completed": {"type": "boolean"},
      "dueDate": {"type": ["integer", "null"]},
      "createdAt": {"type": "string"},
      "subtasks": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["id", "text", "completed"],
          "properties": {
            "id": {"type": "string", "minLength": 1},
            "text": {"type": "string", "minLength": 1},
            "completed": {"type": "boolean"},
            "dueDate": {"type": ["integer", "null"]}
          }
        }
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tasks-schema.json", strings.NewReader(documentSchema)); err != nil {
		panic(fmt.Sprintf("store: add schema resource: %v", err))
	}
	schema, err := compiler.Compile("tasks-schema.json")
	if err != nil {
		panic(fmt.Sprintf("store: compile schema: %v", err))
	}
	return schema
}

func validateDocument(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return compiledSchema.Validate(doc)
}
