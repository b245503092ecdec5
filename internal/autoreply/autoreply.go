// Package autoreply manages per-group auto-reply pointers: a stored message
// id that gets copied as the reply to any reply-shaped message in the group.
package autoreply

import (
	"strconv"

	"janitorbot/internal/snapshot"
)

// Command is the admin command that records the replied-to message as the
// group's auto-reply template.
const Command = "/setreply"

// Set records messageID as the auto-reply pointer for the chat, overwriting
// any previous pointer. Pointers are never deleted, only replaced.
func Set(snap *snapshot.Snapshot, chatID int64, messageID int) {
	snap.AutoReplies[strconv.FormatInt(chatID, 10)] = messageID
}

// Lookup returns the auto-reply pointer for the chat, if one is set.
func Lookup(snap *snapshot.Snapshot, chatID int64) (int, bool) {
	id, ok := snap.AutoReplies[strconv.FormatInt(chatID, 10)]
	return id, ok
}
