package ir

import (
	"testing"

	"github.com/jra3/harvest/internal/id"
)

type stringRepr struct{ s string }

func (r stringRepr) Name() string               { return "string_repr" }
func (r stringRepr) Materialize(path string) error { return nil }
func (r stringRepr) String() string             { return r.s }

type intRepr struct{ n int }

func (r intRepr) Name() string               { return "int_repr" }
func (r intRepr) Materialize(path string) error { return nil }
func (r intRepr) String() string             { return "int" }

type recordingReporter struct{ versions []uint64 }

func (r *recordingReporter) ReportVersion(v uint64) { r.versions = append(r.versions, v) }

func TestInsertAndGetTypedLookup(t *testing.T) {
	tree := New(nil)
	a := id.New()
	b := id.New()

	tree.Insert(a, stringRepr{s: "hello"})
	tree.Insert(b, intRepr{n: 42})

	if v, ok := Get[stringRepr](tree, a); !ok || v.s != "hello" {
		t.Fatalf("Get[stringRepr](a) = %v, %v; want hello, true", v, ok)
	}
	if _, ok := Get[intRepr](tree, a); ok {
		t.Fatal("Get[intRepr](a) should miss: a holds a stringRepr")
	}
	if _, ok := Get[stringRepr](tree, id.New()); ok {
		t.Fatal("Get of an unknown id should miss")
	}
}

func TestInsertDuplicatePanics(t *testing.T) {
	tree := New(nil)
	a := id.New()
	tree.Insert(a, stringRepr{s: "x"})

	defer func() {
		if recover() == nil {
			t.Fatal("Insert of a reused id should panic")
		}
	}()
	tree.Insert(a, stringRepr{s: "y"})
}

func TestContains(t *testing.T) {
	tree := New(nil)
	a := id.New()
	if tree.Contains(a) {
		t.Fatal("Contains should be false before insert")
	}
	tree.Insert(a, stringRepr{s: "x"})
	if !tree.Contains(a) {
		t.Fatal("Contains should be true after insert")
	}
}

func TestByTypeAscendingOrderAndFiltering(t *testing.T) {
	tree := New(nil)
	a := id.New()
	b := id.New()
	c := id.New()
	tree.Insert(a, stringRepr{s: "a"})
	tree.Insert(b, intRepr{n: 1})
	tree.Insert(c, stringRepr{s: "c"})

	pairs := ByType[stringRepr](tree)
	if len(pairs) != 2 {
		t.Fatalf("ByType returned %d pairs, want 2", len(pairs))
	}
	if pairs[0].Id != a || pairs[1].Id != c {
		t.Fatalf("ByType not in insertion order: %v", pairs)
	}
}

func TestIterInsertionOrder(t *testing.T) {
	tree := New(nil)
	ids := []id.Id{id.New(), id.New(), id.New()}
	for i, x := range ids {
		tree.Insert(x, intRepr{n: i})
	}
	all := tree.Iter()
	if len(all) != 3 {
		t.Fatalf("Iter returned %d entries, want 3", len(all))
	}
	for i, p := range all {
		if p.Id != ids[i] {
			t.Fatalf("Iter[%d].Id = %v, want %v", i, p.Id, ids[i])
		}
	}
}

func TestVersionCounterAndReporter(t *testing.T) {
	rep := &recordingReporter{}
	tree := New(rep)
	if tree.Version() != 0 {
		t.Fatalf("Version() = %d, want 0", tree.Version())
	}
	tree.Insert(id.New(), stringRepr{s: "a"})
	tree.Insert(id.New(), stringRepr{s: "b"})

	if tree.Version() != 2 {
		t.Fatalf("Version() = %d, want 2", tree.Version())
	}
	if len(rep.versions) != 2 || rep.versions[0] != 1 || rep.versions[1] != 2 {
		t.Fatalf("reporter saw %v, want [1 2]", rep.versions)
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	tree := New(nil)
	a := id.New()
	tree.Insert(a, stringRepr{s: "before"})

	snap := tree.Snapshot()

	b := id.New()
	tree.Insert(b, stringRepr{s: "after"})

	if !snap.Contains(a) {
		t.Fatal("snapshot should contain entries inserted before it was taken")
	}
	if snap.Contains(b) {
		t.Fatal("snapshot should not observe insertions made after it was taken")
	}
	if snap.Version() != 1 {
		t.Fatalf("snapshot Version() = %d, want 1", snap.Version())
	}
	if tree.Version() != 2 {
		t.Fatalf("live IR Version() = %d, want 2", tree.Version())
	}
}
