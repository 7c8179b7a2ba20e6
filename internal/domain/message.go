// Package domain holds the transient types shared between the webhook
// server and the message handling logic.
package domain

// InboundMessage is one webhook delivery from the messaging provider.
// It lives for the duration of a single handler call.
type InboundMessage struct {
	From     string // sender identifier, e.g. "whatsapp:+91..."
	Body     string // message text, may be empty
	NumMedia int
	MediaURL string // first media item, empty when NumMedia == 0
}

// HasMedia reports whether the message carries a usable media reference.
func (m InboundMessage) HasMedia() bool {
	return m.NumMedia > 0 && m.MediaURL != ""
}

// Image is a decoded media payload passed to the vision provider.
type Image struct {
	MimeType string
	Data     []byte
}
