package realtime

import (
	"encoding/json"
	"errors"
	"strings"
)

// FrameKind tags every realtime frame. Inbound kinds drive the admission
// state machine; outbound kinds are written by the server only.
type FrameKind string

const (
	FrameConnect     FrameKind = "CONNECT"
	FrameSubscribe   FrameKind = "SUBSCRIBE"
	FrameUnsubscribe FrameKind = "UNSUBSCRIBE"
	FrameSend        FrameKind = "SEND"
	FrameDisconnect  FrameKind = "DISCONNECT"

	FrameConnected FrameKind = "CONNECTED"
	FrameMessage   FrameKind = "MESSAGE"
	FrameReceipt   FrameKind = "RECEIPT"
	FrameError     FrameKind = "ERROR"
)

// Inbound reports whether clients may send frames of this kind.
func (k FrameKind) Inbound() bool {
	switch k {
	case FrameConnect, FrameSubscribe, FrameUnsubscribe, FrameSend, FrameDisconnect:
		return true
	}
	return false
}

// Frame is the JSON envelope exchanged over the websocket.
type Frame struct {
	Command     FrameKind         `json:"command"`
	Headers     map[string]string `json:"headers,omitempty"`
	Destination string            `json:"destination,omitempty"`
	ID          string            `json:"id,omitempty"`
	Body        json.RawMessage   `json:"body,omitempty"`
	Message     string            `json:"message,omitempty"`
}

var ErrBadFrame = errors.New("realtime: malformed frame")

// Header looks a header up case-insensitively.
func (f Frame) Header(name string) string {
	if v, ok := f.Headers[name]; ok {
		return v
	}
	for k, v := range f.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ParseFrame decodes one inbound frame. Outbound kinds are rejected.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, ErrBadFrame
	}
	f.Command = FrameKind(strings.ToUpper(strings.TrimSpace(string(f.Command))))
	if !f.Command.Inbound() {
		return Frame{}, ErrBadFrame
	}
	return f, nil
}

// Encode marshals f for the wire.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

func ConnectedFrame(sessionID, user string) Frame {
	return Frame{Command: FrameConnected, Headers: map[string]string{"session": sessionID, "user": user}}
}

func ReceiptFrame(receiptID string) Frame {
	return Frame{Command: FrameReceipt, Headers: map[string]string{"receipt-id": receiptID}}
}

func ErrorFrame(code, message string) Frame {
	return Frame{Command: FrameError, Headers: map[string]string{"code": code}, Message: message}
}

// MessageFrame wraps an already encoded body for delivery on topic.
func MessageFrame(topic string, body []byte) Frame {
	return Frame{Command: FrameMessage, Destination: topic, Body: json.RawMessage(body)}
}
