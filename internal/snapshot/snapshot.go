// Package snapshot defines the persisted state document of the bot and the
// stores that load and save it.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Millis is a timestamp in milliseconds since the Unix epoch. Older writers
// serialized it as a float, so decoding accepts both integer and float forms.
type Millis int64

// UnmarshalJSON accepts integer and float encodings of a millisecond timestamp.
func (m *Millis) UnmarshalJSON(b []byte) error {
	s := string(b)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = Millis(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse millis %q: %w", s, err)
	}
	*m = Millis(int64(f))
	return nil
}

// MarshalJSON always writes the integer form.
func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}

// Time converts the timestamp to time.Time.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// TimeToMillis converts a time.Time to Millis.
func TimeToMillis(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Record tracks one user pending removal from a channel. Records are created
// by the wizard and deleted by the sweeper; they are never updated in place.
type Record struct {
	// Expiry is the removal deadline. It must be in the future at creation
	// time; once it drifts into the past the sweeper picks the record up.
	Expiry Millis `json:"expiry"`
	// ChannelID is the channel the user will be removed from.
	ChannelID int64 `json:"channel_id"`
	// AddedAt is the ISO-8601 creation timestamp.
	AddedAt string `json:"added_at"`
}

// Snapshot is the full persisted state: user expiry records keyed by
// stringified user id and auto-reply message pointers keyed by stringified
// chat id.
type Snapshot struct {
	Users       map[string]Record `json:"users"`
	AutoReplies map[string]int    `json:"auto_replies"`
}

// New returns an empty snapshot with initialized maps.
func New() *Snapshot {
	return &Snapshot{
		Users:       make(map[string]Record),
		AutoReplies: make(map[string]int),
	}
}

func (s *Snapshot) normalize() {
	if s.Users == nil {
		s.Users = make(map[string]Record)
	}
	if s.AutoReplies == nil {
		s.AutoReplies = make(map[string]int)
	}
}

// Encode serializes the snapshot as indented JSON.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		s = New()
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot document. Unknown keys are ignored; missing maps
// come back initialized.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s.normalize()
	return &s, nil
}

// Store is the persistence boundary for snapshots.
//
// Load returns the latest snapshot; when no usable snapshot exists it returns
// an empty one together with the error that made the stored state unusable,
// so callers can log the reset instead of silently discarding it.
//
// Mutate applies fn to the current snapshot and persists the result. The
// Postgres store does this atomically; the channel store can only do a
// read-modify-write without isolation (last write wins).
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
	Mutate(ctx context.Context, fn func(*Snapshot) error) error
}
