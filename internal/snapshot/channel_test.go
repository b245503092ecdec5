package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeChannelAPI struct {
	// texts is the history, newest first.
	texts      []string
	historyErr error

	posted []string
}

func (f *fakeChannelAPI) History(_ context.Context, _ int64, limit int) ([]string, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if len(f.texts) > limit {
		return f.texts[:limit], nil
	}
	return f.texts, nil
}

func (f *fakeChannelAPI) Post(_ context.Context, _ int64, text string) error {
	f.posted = append(f.posted, text)
	return nil
}

func TestChannelLoadOldestCandidateWins(t *testing.T) {
	api := &fakeChannelAPI{texts: []string{
		`{"users": {"2": {"expiry": 2, "channel_id": -1, "added_at": "b"}}}`, // newest
		"chatter",
		`{"users": {"1": {"expiry": 1, "channel_id": -1, "added_at": "a"}}}`, // oldest
	}}
	store := NewChannelStore(api, -100)

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := snap.Users["1"]; !ok {
		t.Fatalf("expected oldest snapshot in window, got %+v", snap.Users)
	}
}

func TestChannelLoadSkipsNonJSON(t *testing.T) {
	api := &fakeChannelAPI{texts: []string{
		`{"auto_replies": {"-5": 7}}`,
		"hello",
		"another message",
	}}
	store := NewChannelStore(api, -100)

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.AutoReplies["-5"] != 7 {
		t.Fatalf("pointer not loaded: %+v", snap.AutoReplies)
	}
}

func TestChannelLoadNoSnapshotInWindow(t *testing.T) {
	api := &fakeChannelAPI{texts: []string{"a", "b"}}
	store := NewChannelStore(api, -100)

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Users) != 0 || len(snap.AutoReplies) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestChannelLoadMalformedResets(t *testing.T) {
	api := &fakeChannelAPI{texts: []string{`{"users": broken`}}
	store := NewChannelStore(api, -100)

	snap, err := store.Load(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if snap == nil || len(snap.Users) != 0 {
		t.Fatalf("expected empty snapshot alongside error, got %+v", snap)
	}
}

func TestChannelLoadHistoryUnavailable(t *testing.T) {
	api := &fakeChannelAPI{historyErr: errors.New("unreachable")}
	store := NewChannelStore(api, -100)

	snap, err := store.Load(context.Background())
	if err == nil {
		t.Fatal("expected history error")
	}
	if snap == nil {
		t.Fatal("expected empty snapshot alongside error")
	}
}

func TestChannelSavePostsIndentedJSON(t *testing.T) {
	api := &fakeChannelAPI{}
	store := NewChannelStore(api, -100)

	snap := New()
	snap.Users["9"] = Record{Expiry: 5, ChannelID: -2, AddedAt: "t"}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(api.posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(api.posted))
	}
	if !strings.HasPrefix(api.posted[0], "{") {
		t.Errorf("snapshot message must start with '{': %q", api.posted[0])
	}
	if !strings.Contains(api.posted[0], "\n  ") {
		t.Errorf("snapshot should be indented: %q", api.posted[0])
	}
}

func TestChannelMutateRoundTrip(t *testing.T) {
	api := &fakeChannelAPI{texts: []string{`{"auto_replies": {"-5": 7}}`}}
	store := NewChannelStore(api, -100)

	err := store.Mutate(context.Background(), func(s *Snapshot) error {
		s.AutoReplies["-6"] = 8
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if len(api.posted) != 1 {
		t.Fatalf("posted = %d, want 1", len(api.posted))
	}

	saved, err := Decode([]byte(api.posted[0]))
	if err != nil {
		t.Fatalf("decode saved: %v", err)
	}
	if saved.AutoReplies["-5"] != 7 || saved.AutoReplies["-6"] != 8 {
		t.Fatalf("mutation lost data: %+v", saved.AutoReplies)
	}
}
