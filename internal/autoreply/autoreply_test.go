package autoreply

import (
	"testing"

	"janitorbot/internal/snapshot"
)

func TestSetAndLookup(t *testing.T) {
	snap := snapshot.New()

	if _, ok := Lookup(snap, -100); ok {
		t.Fatal("no pointer expected in empty snapshot")
	}

	Set(snap, -100, 42)
	id, ok := Lookup(snap, -100)
	if !ok || id != 42 {
		t.Fatalf("Lookup = %d/%v, want 42/true", id, ok)
	}

	// Setting again overwrites; pointers are never deleted.
	Set(snap, -100, 43)
	id, _ = Lookup(snap, -100)
	if id != 43 {
		t.Fatalf("pointer not overwritten: %d", id)
	}

	if _, ok := Lookup(snap, -200); ok {
		t.Fatal("pointer must be scoped per chat")
	}
}

func TestPointerSurvivesRoundTrip(t *testing.T) {
	snap := snapshot.New()
	Set(snap, -100777, 7)

	data, err := snapshot.Encode(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	loaded, err := snapshot.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	id, ok := Lookup(loaded, -100777)
	if !ok || id != 7 {
		t.Fatalf("Lookup after round trip = %d/%v, want 7/true", id, ok)
	}
}
