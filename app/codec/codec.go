// Package codec converts task records to and from bytes. Every decoded
// document is checked against the record schema before it is accepted.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"zodo/app/models"
	"zodo/app/tree"
)

// Format names a serialization format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ParseFormat accepts a format name; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml or toml)", s)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".toml":
		return TOML
	default:
		return JSON
	}
}

// ContentType returns the MIME type used when serving f over HTTP.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case TOML:
		return "application/toml"
	default:
		return "application/json"
	}
}

// Encode serializes rec in format f.
func Encode(rec models.Record, f Format) ([]byte, error) {
	switch f {
	case JSON, "":
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json record: %w", err)
		}
		return append(data, '\n'), nil
	case YAML:
		data, err := yaml.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml record: %w", err)
		}
		return data, nil
	case TOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(rec); err != nil {
			return nil, fmt.Errorf("encoding toml record: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// Decode parses data in format f and validates it against the record schema.
// Schema violations are reported as tree.ErrTypeMismatch.
func Decode(data []byte, f Format) (models.Record, error) {
	var doc any
	switch f {
	case JSON, "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return models.Record{}, fmt.Errorf("decoding json record: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return models.Record{}, fmt.Errorf("decoding yaml record: %w", err)
		}
	case TOML:
		var m map[string]any
		if _, err := toml.Decode(string(data), &m); err != nil {
			return models.Record{}, fmt.Errorf("decoding toml record: %w", err)
		}
		// TOML cannot express an empty array of tables, so leaves arrive
		// without a children key.
		fillChildren(m)
		doc = m
	default:
		return models.Record{}, fmt.Errorf("unknown format %q", f)
	}
	return fromDocument(doc)
}

// DecodeJSON is Decode for JSON input.
func DecodeJSON(data []byte) (models.Record, error) {
	return Decode(data, JSON)
}

func fromDocument(doc any) (models.Record, error) {
	normalized, err := json.Marshal(doc)
	if err != nil {
		return models.Record{}, fmt.Errorf("normalizing record: %w", err)
	}
	var generic any
	if err := json.Unmarshal(normalized, &generic); err != nil {
		return models.Record{}, fmt.Errorf("normalizing record: %w", err)
	}
	if err := compiled.Validate(generic); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			var msgs []string
			collectSchemaErrors(ve, &msgs)
			return models.Record{}, &tree.Error{Kind: tree.ErrTypeMismatch, Msg: "invalid record: " + strings.Join(msgs, "; ")}
		}
		return models.Record{}, fmt.Errorf("validating record: %w", err)
	}
	var rec models.Record
	if err := json.Unmarshal(normalized, &rec); err != nil {
		return models.Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}

func fillChildren(m map[string]any) {
	if m == nil {
		return
	}
	raw, ok := m["children"]
	if !ok {
		m["children"] = []any{}
		return
	}
	switch kids := raw.(type) {
	case []map[string]any:
		for _, k := range kids {
			fillChildren(k)
		}
	case []any:
		for _, k := range kids {
			if km, ok := k.(map[string]any); ok {
				fillChildren(km)
			}
		}
	}
}
