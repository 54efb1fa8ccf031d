package gen

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDUnique(t *testing.T) {
	g := UUID()
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNilGenerator(t *testing.T) {
	var g UUIDGenerator
	if g.Next() != uuid.Nil {
		t.Error("nil generator should yield uuid.Nil")
	}
}

func TestSequence(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	g := Sequence(a, b)
	if g.Next() != a || g.Next() != b {
		t.Fatal("sequence out of order")
	}
	if g.Next() != uuid.Nil {
		t.Error("exhausted sequence should yield uuid.Nil")
	}
}
