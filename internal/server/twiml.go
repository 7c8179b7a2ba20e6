package server

import (
	"encoding/xml"
	"net/http"
)

// messagingResponse is the TwiML envelope Twilio expects back from a
// messaging webhook: <Response><Message>text</Message></Response>.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/xml")

	// Marshalling a string field cannot fail.
	body, _ := xml.Marshal(messagingResponse{Message: message})

	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}
