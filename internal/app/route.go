package app

import "strings"

// Route names the handler an incoming message is dispatched to.
type Route string

const (
	// RouteIgnore drops private messages from anyone but the admin.
	RouteIgnore Route = "ignore"
	// RouteCaption cleans a document caption in the file channel.
	RouteCaption Route = "caption"
	// RouteSetReply records a group's auto-reply pointer.
	RouteSetReply Route = "setreply"
	// RouteGroupReply answers a group reply with the stored pointer, if any.
	RouteGroupReply Route = "autoreply"
	// RouteWizard feeds a private admin message into the conversation wizard.
	RouteWizard Route = "wizard"
	// RouteNone matches nothing and is a no-op.
	RouteNone Route = "none"
)

// Meta is the shape of an incoming message, reduced to the fields the
// dispatcher decides on.
type Meta struct {
	ChatID   int64
	ChatType string
	SenderID int64
	IsReply  bool
	Document bool
	Caption  string
	Text     string
}

// Classify picks the route for a message. Conditions are ordered and the
// first match wins; anything unmatched is a no-op.
func Classify(m Meta, adminID, fileChannel int64) Route {
	private := m.ChatType == "private"
	group := m.ChatType == "group" || m.ChatType == "supergroup"

	switch {
	case private && m.SenderID != adminID:
		return RouteIgnore
	case m.ChatID == fileChannel && m.Document && m.Caption != "":
		return RouteCaption
	case group && m.IsReply:
		if m.SenderID == adminID && strings.HasPrefix(m.Text, setReplyCommand) {
			return RouteSetReply
		}
		return RouteGroupReply
	case private && m.SenderID == adminID && !m.IsReply:
		return RouteWizard
	}
	return RouteNone
}
