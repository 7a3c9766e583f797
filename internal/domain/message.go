package domain

type MessageType string

const (
	TypeJoin       MessageType = "join"
	TypeJoined     MessageType = "joined"
	TypePeerJoined MessageType = "peer-joined"
	TypeOffer      MessageType = "offer"
	TypeAnswer     MessageType = "answer"
	TypeCandidate  MessageType = "candidate"
	TypeBye        MessageType = "bye"
	TypeError      MessageType = "error"
)

var forwardable = map[MessageType]struct{}{
	TypeOffer:     {},
	TypeAnswer:    {},
	TypeCandidate: {},
	TypeBye:       {},
}

// IsForwardable reports whether frames of type t may be relayed to room mates.
func IsForwardable(t MessageType) bool {
	_, ok := forwardable[t]
	return ok
}

// CountMessage is sent as "joined" and "peer-joined".
type CountMessage struct {
	Type  MessageType `json:"type"`
	Count int         `json:"count"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

func Joined(count int) CountMessage     { return CountMessage{Type: TypeJoined, Count: count} }
func PeerJoined(count int) CountMessage { return CountMessage{Type: TypePeerJoined, Count: count} }

func Error(msg string) ErrorMessage { return ErrorMessage{Type: TypeError, Message: msg} }
