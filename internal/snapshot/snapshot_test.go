package snapshot

import (
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snap := New()
	snap.Users["12345"] = Record{
		Expiry:    1767225600000,
		ChannelID: -100999,
		AddedAt:   "2026-01-01T00:00:00Z",
	}
	snap.AutoReplies["-100777"] = 42

	data, err := Encode(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Users) != 1 || len(got.AutoReplies) != 1 {
		t.Fatalf("unexpected maps: %+v", got)
	}
	if got.Users["12345"] != snap.Users["12345"] {
		t.Errorf("record mismatch: %+v != %+v", got.Users["12345"], snap.Users["12345"])
	}
	if got.AutoReplies["-100777"] != 42 {
		t.Errorf("pointer mismatch: %d", got.AutoReplies["-100777"])
	}
}

func TestDecodeFloatExpiry(t *testing.T) {
	// Older writers serialized expiry as a float.
	doc := `{"users": {"1": {"expiry": 1767225600123.0, "channel_id": -5, "added_at": "x"}}}`
	snap, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Users["1"].Expiry != 1767225600123 {
		t.Errorf("expiry = %d", snap.Users["1"].Expiry)
	}
}

func TestDecodeMissingMapsInitialized(t *testing.T) {
	snap, err := Decode([]byte(`{}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Users == nil || snap.AutoReplies == nil {
		t.Fatal("maps must be initialized")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestMillisTimeConversion(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
	m := TimeToMillis(now)
	if !m.Time().Equal(now) {
		t.Errorf("round trip changed time: %v != %v", m.Time(), now)
	}
}
