package codec

import (
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://zodo.dev/schemas/record.json"

// recordSchema describes one task record; children recurse to the root.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "https://zodo.dev/schemas/record.json",
  "title": "zodo task record",
  "type": "object",
  "required": ["name", "children", "done", "show"],
  "properties": {
    "name": {"type": "string"},
    "done": {"type": "boolean"},
    "show": {"type": "boolean"},
    "children": {"type": "array", "items": {"$ref": "#"}}
  }
}`

var compiled = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(recordSchema)); err != nil {
		panic(fmt.Sprintf("record schema: %v", err))
	}
	return compiler.MustCompile(schemaURL)
}

// Schema returns the JSON Schema document for task records.
func Schema() string { return recordSchema }

func collectSchemaErrors(err *jsonschema.ValidationError, out *[]string) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, out)
	}
}
