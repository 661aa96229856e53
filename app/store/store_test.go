package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"zodo/app/config"
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

// exerciseStore checks the Load/Save contract shared by every backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty slot: %v", err)
	}
	if got != nil {
		t.Fatalf("empty slot returned %+v", got)
	}

	want := sampleRecord()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || !sameRecord(*got, want) {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	replacement := models.Record{Name: "fresh", Show: true, Children: []models.Record{}}
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || !sameRecord(*got, replacement) {
		t.Fatalf("Save did not overwrite the slot: %+v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	if s.Saves() != 2 {
		t.Errorf("Saves = %d, want 2", s.Saves())
	}
}

func TestFileStore_Formats(t *testing.T) {
	for _, name := range []string{"tree.json", "tree.yaml", "tree.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			exerciseStore(t, NewFileStore(path))
			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("expected only the slot file, found %d entries", len(entries))
			}
		})
	}
}

func TestFileStore_RejectsInvalidRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := os.WriteFile(path, []byte(`{"name":"x","children":[],"done":"no","show":true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path).Load(context.Background())
	if !errors.Is(err, tree.ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestFlattenAssemble(t *testing.T) {
	want := sampleRecord()
	params := flatten(want)
	if len(params) != want.Count() {
		t.Fatalf("flatten produced %d rows, want %d", len(params), want.Count())
	}

	rows := make([]nodeRow, 0, len(params))
	// Reverse the order to make sure assemble does not rely on it.
	for i := len(params) - 1; i >= 0; i-- {
		p := params[i]
		row := nodeRow{
			ID:       p["id"].(string),
			Position: p["position"].(int64),
			Name:     p["title"].(string),
			Done:     p["completed"].(bool),
			Show:     p["show"].(bool),
		}
		if pid, ok := p["parent_id"].(string); ok {
			row.ParentID = pid
		}
		rows = append(rows, row)
	}

	got, err := assemble(rows)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !sameRecord(*got, want) {
		t.Errorf("assemble = %+v, want %+v", *got, want)
	}
}

func TestAssemble_Errors(t *testing.T) {
	cases := map[string][]nodeRow{
		"two roots":      {{ID: "a"}, {ID: "b"}},
		"missing parent": {{ID: "a"}, {ID: "b", ParentID: "zz"}},
		"no root":        {{ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}},
		"unreachable":    {{ID: "r"}, {ID: "a", ParentID: "b"}, {ID: "b", ParentID: "a"}},
		"duplicate":      {{ID: "r"}, {ID: "r"}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := assemble(rows); err == nil {
				t.Error("expected error")
			}
		})
	}
	got, err := assemble(nil)
	if err != nil || got != nil {
		t.Errorf("assemble(nil) = %v, %v; want empty slot", got, err)
	}
}

func TestRowFromValues(t *testing.T) {
	row, err := rowFromValues([]any{"id1", "name", true, false, int64(3), nil})
	if err != nil {
		t.Fatalf("rowFromValues: %v", err)
	}
	if row.ParentID != "" || row.Position != 3 || !row.Done || row.Show {
		t.Errorf("row = %+v", row)
	}
	if _, err := rowFromValues([]any{"id1", "name", "yes", false, int64(3), nil}); err == nil {
		t.Error("expected error for non-bool completed")
	}
}

func TestOpen_LocalBackends(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "tree.yaml")

	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if fs, ok := s.(*FileStore); !ok || fs.Path() != cfg.Store.Path {
		t.Errorf("Open(file) = %#v", s)
	}

	cfg.Store.Backend = config.BackendMemory
	s, err = Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %#v", s)
	}

	cfg.Store.Backend = "redis"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNeo4jStore_Integration(t *testing.T) {
	uri := os.Getenv("ZODO_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("ZODO_TEST_NEO4J_URI not set")
	}
	cfg := config.Default()
	cfg.Store.Backend = config.BackendNeo4j
	cfg.Store.Key = "zodo-test-" + t.Name()
	cfg.Neo4j.URI = uri
	if u := os.Getenv("ZODO_TEST_NEO4J_USERNAME"); u != "" {
		cfg.Neo4j.Username = u
	}
	if p := os.Getenv("ZODO_TEST_NEO4J_PASSWORD"); p != "" {
		cfg.Neo4j.Password = p
	}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(context.Background())
	ns := s.(*Neo4jStore)
	_, err = neo4j.ExecuteQuery(context.Background(), ns.driver,
		"MATCH (t:Task {slot: $slot}) DETACH DELETE t",
		map[string]any{"slot": cfg.Store.Key}, neo4j.EagerResultTransformer)
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestPgStore_Integration(t *testing.T) {
	dsn := os.Getenv("ZODO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ZODO_TEST_POSTGRES_DSN not set")
	}
	cfg := config.Default()
	cfg.Store.Backend = config.BackendPostgres
	cfg.Store.Key = "zodo-test-" + t.Name()
	cfg.Postgres.DSN = dsn
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(context.Background())
	pg := s.(*PgStore)
	if _, err := pg.pool.Exec(context.Background(), `DELETE FROM zodo_slots WHERE key = $1`, cfg.Store.Key); err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}
