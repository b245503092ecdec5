// Package wizard implements the private admin conversation that collects the
// parameters of a new expiry record: target user id, duration, channel id.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"janitorbot/internal/expiry"
	"janitorbot/internal/telegram/helpers"
)

// Step tags the state of a conversation. A chat with no session is idle.
type Step string

const (
	// StepAwaitingTime means the user id is collected and a duration token
	// is expected next.
	StepAwaitingTime Step = "time"
	// StepAwaitingChannel means user id and duration are collected and a
	// channel id is expected next.
	StepAwaitingChannel Step = "channel"
)

// Session is the in-flight conversation state for one private chat.
type Session struct {
	Step      Step
	UserID    int64
	Duration  time.Duration
	UpdatedAt time.Time
}

// Pending carries the collected parameters of a completed conversation.
type Pending struct {
	UserID    int64
	ChannelID int64
	Duration  time.Duration
}

// Result is the outcome of feeding one message into the wizard.
type Result struct {
	// Reply is the HTML response to send back to the admin.
	Reply string
	// Record is non-nil when the conversation completed and a new expiry
	// record should be written.
	Record *Pending
}

const (
	promptUserID   = "<b>Send the target user ID (number)</b>"
	promptTime     = "<b>Step 2:</b> send a time\n<code>30i | 2h | 30d | 1o | 2y</code>"
	promptChannel  = "<b>Send the channel ID</b> (where the user will be removed from)"
	replyBadTime   = "<b>Wrong format!</b> Use: <code>2h</code>"
	replyBadTarget = "<b>Invalid channel ID</b>"
)

// Manager keeps wizard sessions keyed by chat id. Sessions untouched for
// longer than the TTL are dropped, so an abandoned conversation starts over
// instead of staying parked forever.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a session manager with the given abandonment TTL.
// A non-positive TTL disables expiration.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Clear drops the conversation state for a chat.
func (m *Manager) Clear(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// InProgress reports whether the chat has a live conversation.
func (m *Manager) InProgress(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(chatID) != nil
}

// live returns the session for chatID if it exists and has not expired.
// Callers must hold mu.
func (m *Manager) live(chatID int64) *Session {
	sess, ok := m.sessions[chatID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(sess.UpdatedAt) > m.ttl {
		delete(m.sessions, chatID)
		return nil
	}
	return sess
}

// Advance feeds one admin message into the conversation for chatID and
// returns the reply to send plus, on completion, the collected record
// parameters. Invalid input never advances the conversation: the idle state
// re-prompts, and the time and channel steps stay parked.
func (m *Manager) Advance(chatID int64, text string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	text = strings.TrimSpace(text)
	sess := m.live(chatID)

	if sess == nil {
		userID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Result{Reply: promptUserID}
		}
		m.sessions[chatID] = &Session{
			Step:      StepAwaitingTime,
			UserID:    userID,
			UpdatedAt: m.now(),
		}
		return Result{Reply: promptTime}
	}

	// Any message into a live session counts as activity, including
	// rejected input, so a user retrying bad tokens is not expired away.
	sess.UpdatedAt = m.now()

	switch sess.Step {
	case StepAwaitingTime:
		d := expiry.ParseToken(text)
		if d <= 0 {
			return Result{Reply: replyBadTime}
		}
		sess.Duration = d
		sess.Step = StepAwaitingChannel
		return Result{Reply: promptChannel}

	case StepAwaitingChannel:
		channelID, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Result{Reply: replyBadTarget}
		}
		pending := &Pending{
			UserID:    sess.UserID,
			ChannelID: channelID,
			Duration:  sess.Duration,
		}
		delete(m.sessions, chatID)
		return Result{
			Reply:  confirmation(pending),
			Record: pending,
		}
	}

	// Unknown step, treat as corrupt and reset.
	delete(m.sessions, chatID)
	return Result{Reply: promptUserID}
}

func confirmation(p *Pending) string {
	minutes := int64(p.Duration / time.Minute)
	return fmt.Sprintf("<b>Timer set!</b>\n%s will be removed from <code>%d</code> in <b>%d min</b>.",
		helpers.Mention(p.UserID, "User"), p.ChannelID, minutes)
}
