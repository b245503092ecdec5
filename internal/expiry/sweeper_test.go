package expiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"janitorbot/internal/snapshot"
)

type fakeTelegram struct {
	bans    []string
	unbans  []string
	notices []string

	banErr map[string]error
}

func key(chatID, userID int64) string {
	return fmt.Sprintf("%d/%d", chatID, userID)
}

func (f *fakeTelegram) Ban(_ context.Context, chatID, userID int64) error {
	k := key(chatID, userID)
	if err := f.banErr[k]; err != nil {
		return err
	}
	f.bans = append(f.bans, k)
	return nil
}

func (f *fakeTelegram) Unban(_ context.Context, chatID, userID int64) error {
	f.unbans = append(f.unbans, key(chatID, userID))
	return nil
}

func (f *fakeTelegram) SendHTML(_ context.Context, chatID int64, text string) error {
	f.notices = append(f.notices, fmt.Sprintf("%d:%s", chatID, text))
	return nil
}

func testSweeper(tg *fakeTelegram, now time.Time) *Sweeper {
	s := NewSweeper(tg, -100500, nil)
	s.now = func() time.Time { return now }
	return s
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := snapshot.New()
	snap.Users["111"] = snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(-time.Minute)),
		ChannelID: -100999,
	}
	snap.Users["222"] = snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(time.Hour)),
		ChannelID: -100999,
	}

	tg := &fakeTelegram{}
	expired, removed := testSweeper(tg, now).Sweep(context.Background(), snap)

	if expired != 1 || removed != 1 {
		t.Fatalf("expired=%d removed=%d, want 1/1", expired, removed)
	}
	if _, ok := snap.Users["111"]; ok {
		t.Error("expired record 111 should be deleted")
	}
	if _, ok := snap.Users["222"]; !ok {
		t.Error("live record 222 should be untouched")
	}
	if len(tg.bans) != 1 || tg.bans[0] != "-100999/111" {
		t.Errorf("bans = %v", tg.bans)
	}
	if len(tg.unbans) != 1 || tg.unbans[0] != "-100999/111" {
		t.Errorf("unbans = %v", tg.unbans)
	}
}

func TestSweepNotifiesOncePerRemoval(t *testing.T) {
	now := time.Now()
	snap := snapshot.New()
	for _, uid := range []string{"1", "2", "3"} {
		snap.Users[uid] = snapshot.Record{
			Expiry:    snapshot.TimeToMillis(now.Add(-time.Second)),
			ChannelID: -1,
		}
	}

	tg := &fakeTelegram{}
	_, removed := testSweeper(tg, now).Sweep(context.Background(), snap)

	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	if len(tg.notices) != 3 {
		t.Fatalf("notices = %d, want 3", len(tg.notices))
	}
	for _, n := range tg.notices {
		if !strings.HasPrefix(n, "-100500:") {
			t.Errorf("notice sent to wrong channel: %s", n)
		}
		if !strings.Contains(n, "removed") {
			t.Errorf("notice missing removal text: %s", n)
		}
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	now := time.Now()
	snap := snapshot.New()
	snap.Users["111"] = snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(-time.Second)),
		ChannelID: -1,
	}
	snap.Users["222"] = snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(-time.Second)),
		ChannelID: -1,
	}

	tg := &fakeTelegram{banErr: map[string]error{"-1/111": errors.New("forbidden")}}
	expired, removed := testSweeper(tg, now).Sweep(context.Background(), snap)

	if expired != 2 {
		t.Fatalf("expired = %d, want 2", expired)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	// The failed record stays for the next sweep.
	if _, ok := snap.Users["111"]; !ok {
		t.Error("failed record 111 should be kept")
	}
	if _, ok := snap.Users["222"]; ok {
		t.Error("record 222 should be removed")
	}
	if len(tg.notices) != 1 {
		t.Errorf("notices = %d, want 1", len(tg.notices))
	}
}

func TestSweepBadUserIDKeepsRecord(t *testing.T) {
	now := time.Now()
	snap := snapshot.New()
	snap.Users["not-a-number"] = snapshot.Record{
		Expiry:    snapshot.TimeToMillis(now.Add(-time.Second)),
		ChannelID: -1,
	}

	tg := &fakeTelegram{}
	expired, removed := testSweeper(tg, now).Sweep(context.Background(), snap)

	if expired != 1 || removed != 0 {
		t.Fatalf("expired=%d removed=%d, want 1/0", expired, removed)
	}
	if len(tg.bans) != 0 {
		t.Errorf("no ban expected, got %v", tg.bans)
	}
}

func TestSweepNilSnapshot(t *testing.T) {
	tg := &fakeTelegram{}
	expired, removed := testSweeper(tg, time.Now()).Sweep(context.Background(), nil)
	if expired != 0 || removed != 0 {
		t.Fatalf("expired=%d removed=%d, want 0/0", expired, removed)
	}
}
