package notify

import (
	"fmt"
	"html"

	"github.com/abelikov/keywatch/internal/domain"
)

// BuildAlert renders the admin notification for a matched message as
// Bot API HTML: the detecting account, the escaped message body, a contact
// line for the sender, and a permalink to the message.
func BuildAlert(accountName string, msg domain.Message) string {
	var contact string
	if msg.SenderUsername != "" {
		contact = "Contact: @" + msg.SenderUsername
	} else {
		name := msg.SenderName
		if name == "" {
			name = "Unknown"
		}
		contact = fmt.Sprintf(`Contact: <a href="tg://user?id=%d">%s</a>`, msg.SenderID, html.EscapeString(name))
	}

	return fmt.Sprintf("Detected by account: %s\n\n%s\n\n%s\n\n<a href='%s'>Message link</a>",
		html.EscapeString(accountName),
		html.EscapeString(msg.Text),
		contact,
		MessageLink(msg),
	)
}

// MessageLink builds a t.me permalink. Chats with a public handle get the
// handle form; private chats get the /c/ form with the bare channel id
// (gotd ids carry no -100 Bot API prefix).
func MessageLink(msg domain.Message) string {
	if msg.ChatHandle != "" {
		return fmt.Sprintf("https://t.me/%s/%d", msg.ChatHandle, msg.ID)
	}
	return fmt.Sprintf("https://t.me/c/%d/%d", msg.ChatID, msg.ID)
}
