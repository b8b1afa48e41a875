package types

// Session is a per-visitor record keyed by the identifier stored in the
// session cookie. Sessions are never destroyed.
type Session struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// NewSession returns a session with an empty data blob.
func NewSession(id string) Session {
	return Session{ID: id, Data: make(map[string]any)}
}

// Clone returns a copy whose data map can be mutated independently.
// Nested values are shared.
func (s Session) Clone() Session {
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return Session{ID: s.ID, Data: data}
}

// MessageType is the display severity of a feedback message.
type MessageType string

const (
	MessageSuccess MessageType = "success"
	MessageDanger  MessageType = "danger"
)

// Message is a post-redirect feedback entry from the message catalog.
type Message struct {
	Key  string      `json:"key"`
	Msg  string      `json:"msg"`
	Type MessageType `json:"type"`
}
