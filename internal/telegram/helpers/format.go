package helpers

import (
	"fmt"
	"html"
)

// Mention builds an HTML mention link for a user id. The display name is
// escaped so arbitrary names cannot break the markup.
func Mention(userID int64, name string) string {
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}
