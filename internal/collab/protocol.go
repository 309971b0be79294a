package collab

import (
	"encoding/json"
	"fmt"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Username string          `json:"username,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a message of the given type.
func NewMessage(typ string, payload any) (*Message, error) {
	msg := &Message{Type: typ}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

const (
	// Streaming ink and pointers, relayed without touching room state.
	TypeDrawingStart = "drawing:start"
	TypeDrawingMove  = "drawing:move"
	TypeLaserMove    = "laser:move"
	TypeLaserStop    = "laser:stop"

	// Mutations applied to the room's layer store, then broadcast.
	TypeDrawingEnd     = "drawing:end"
	TypeHistoryUndo    = "history:undo"
	TypeStrokesMove    = "strokes:move"
	TypeElementUpdate  = "element:update"
	TypeElementsCreate = "elements:create"
	TypeBoardClear     = "board:clear"

	// Room lifecycle.
	TypeRoomData  = "room:data"
	TypeUserJoin  = "user:join"
	TypeUserLeave = "user:leave"
	TypeError     = "error"
)

type DrawingStartPayload struct {
	Stroke board.Stroke `json:"stroke"`
}

type DrawingMovePayload struct {
	StrokeID string     `json:"strokeId"`
	Point    geom.Point `json:"point"`
}

type DrawingEndPayload struct {
	Stroke board.Stroke `json:"stroke"`
}

type LaserMovePayload struct {
	Point geom.Point `json:"point"`
}

// HistoryUndoPayload removes strokes by id. With no ids the server removes
// the sender's most recent stroke.
type HistoryUndoPayload struct {
	StrokeIDs []string `json:"strokeIds,omitempty"`
}

type StrokesMovePayload struct {
	StrokeIDs []string `json:"strokeIds"`
	DX        float64  `json:"dx"`
	DY        float64  `json:"dy"`
}

type ElementUpdatePayload struct {
	ID    string             `json:"id"`
	Patch board.ElementPatch `json:"patch"`
}

type ElementsCreatePayload struct {
	Elements []board.Element `json:"elements"`
}

type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type RoomDataPayload struct {
	Layers       board.Layers  `json:"layers"`
	Participants []Participant `json:"participants"`
	// EventLog lists the mutations applied since the room was created, for
	// replay.
	EventLog []Message `json:"eventLog,omitempty"`
}

type PresencePayload struct {
	User         Participant   `json:"user"`
	Participants []Participant `json:"participants"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
