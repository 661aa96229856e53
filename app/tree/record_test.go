package tree

import (
	"errors"
	"testing"

	"zodo/app/models"
)

func recordsEqual(a, b models.Record) bool {
	if a.Name != b.Name || a.Done != b.Done || a.Show != b.Show || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !recordsEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func TestExport(t *testing.T) {
	tr, n := buildSample(t)
	_ = tr.SetDone(n["b1"], true)
	_ = tr.SetShow(n["b"], false)

	rec := Export(tr.Root())
	if rec.Name != "root" || len(rec.Children) != 2 {
		t.Fatalf("unexpected root record: %+v", rec)
	}
	b := rec.Children[1]
	if b.Name != "b" || b.Show || b.Done {
		t.Errorf("b record = %+v", b)
	}
	if !b.Children[0].Done || b.Children[1].Done {
		t.Errorf("b children = %+v", b.Children)
	}
	if rec.Children[0].Children == nil {
		t.Error("leaf children should export as an empty list")
	}
	if rec.Count() != 5 {
		t.Errorf("Count = %d, want 5", rec.Count())
	}
}

func TestFromRecord_RoundTrip(t *testing.T) {
	tr, n := buildSample(t)
	_ = tr.SetDone(n["b1"], true)
	_ = tr.SetDone(n["b2"], true)
	_ = tr.SetShow(n["b"], false)
	_ = tr.Rename(n["a"], "")

	want := Export(tr.Root())
	back, err := FromRecord(want)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if got := Export(back.Root()); !recordsEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if !back.Persistent() {
		t.Error("loaded tree should have persistence enabled")
	}
}

func TestImport_NormalizesForcedFields(t *testing.T) {
	rec := models.Record{
		Name: "root",
		Show: false,
		Done: true,
		Children: []models.Record{
			{Name: "leaf", Show: false, Done: false, Children: []models.Record{}},
		},
	}
	tr, err := FromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	leaf := tr.Root().Children()[0]
	if !leaf.Show() {
		t.Error("childless task imported collapsed")
	}
	if tr.Root().Done() {
		t.Error("root done imported over an open child")
	}
	if tr.Root().Show() {
		t.Error("root with children should keep show=false")
	}
}

func TestImport_UnderParent(t *testing.T) {
	tr, n := buildSample(t)
	calls := 0
	tr.SetPersister(PersistFunc(func(*Task) error { calls++; return nil }))

	sub := models.Record{Name: "c", Children: []models.Record{
		{Name: "c1", Done: true},
		{Name: "c2", Done: true},
	}}
	c, err := tr.Import(sub, n["a"])
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if calls != 1 {
		t.Errorf("persist calls = %d, want 1", calls)
	}
	if c.Parent() != n["a"] || c.Len() != 2 {
		t.Fatal("imported subtree misplaced")
	}
	if !c.Done() || !n["a"].Done() {
		t.Error("completed import should cascade to its new ancestors")
	}
	if c.Children()[0].ID() == c.Children()[1].ID() {
		t.Error("imported tasks share ids")
	}
}

func TestImport_ForeignParent(t *testing.T) {
	tr := New("root")
	other := New("other")
	if _, err := tr.Import(models.Record{Name: "x"}, other.Root()); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}
