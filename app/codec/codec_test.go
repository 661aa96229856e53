package codec

import (
	"errors"
	"strings"
	"testing"

	"zodo/app/models"
	"zodo/app/tree"
)

func sampleRecord() models.Record {
	return models.Record{
		Name: "root",
		Show: true,
		Children: []models.Record{
			{Name: "a", Done: true, Show: true, Children: []models.Record{}},
			{Name: "b", Show: false, Children: []models.Record{
				{Name: "b1", Done: true, Show: true, Children: []models.Record{}},
				{Name: "b2", Show: true, Children: []models.Record{}},
			}},
		},
	}
}

func sameRecord(a, b models.Record) bool {
	if a.Name != b.Name || a.Done != b.Done || a.Show != b.Show || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameRecord(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func TestEncodeDecode_AllFormats(t *testing.T) {
	for _, f := range []Format{JSON, YAML, TOML} {
		t.Run(string(f), func(t *testing.T) {
			want := sampleRecord()
			data, err := Encode(want, f)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(data, f)
			if err != nil {
				t.Fatalf("Decode: %v\n%s", err, data)
			}
			if !sameRecord(got, want) {
				t.Errorf("mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	cases := map[string]string{
		"done string":    `{"name":"x","children":[],"done":"yes","show":true}`,
		"show number":    `{"name":"x","children":[],"done":false,"show":1}`,
		"nested child":   `{"name":"x","children":[{"name":"y","children":[],"done":null,"show":true}],"done":false,"show":true}`,
		"missing show":   `{"name":"x","children":[],"done":false}`,
		"children not [": `{"name":"x","children":{},"done":false,"show":true}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(input))
			if !errors.Is(err, tree.ErrTypeMismatch) {
				t.Fatalf("err = %v, want ErrTypeMismatch", err)
			}
		})
	}
}

func TestDecode_Syntax(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"name":`))
	if err == nil || errors.Is(err, tree.ErrTypeMismatch) {
		t.Fatalf("err = %v, want a syntax error", err)
	}
}

func TestDecode_YAMLTypeMismatch(t *testing.T) {
	input := "name: x\nchildren: []\ndone: maybe\nshow: true\n"
	if _, err := Decode([]byte(input), YAML); !errors.Is(err, tree.ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": JSON, "JSON": JSON, "yml": YAML, "toml": TOML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"tree.json":       JSON,
		"tree.YAML":       YAML,
		"dir/tree.yml":    YAML,
		"tree.toml":       TOML,
		"no-extension":    JSON,
		"archive.tar.bak": JSON,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSchemaDocument(t *testing.T) {
	if !strings.Contains(Schema(), `"$ref": "#"`) {
		t.Error("schema should recurse through children")
	}
}
