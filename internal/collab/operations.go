package collab

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/inkboard/inkboard/client-go/internal/board"
)

var (
	ErrNotMutation   = errors.New("not a board mutation")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// IsMutation reports whether messages of type typ change board content.
func IsMutation(typ string) bool {
	switch typ {
	case TypeDrawingEnd, TypeHistoryUndo, TypeStrokesMove,
		TypeElementUpdate, TypeElementsCreate, TypeBoardClear:
		return true
	}
	return false
}

// Apply applies a mutation message to store and returns the message to
// broadcast, with server-resolved fields filled in: committed strokes are
// stamped with the author and an empty undo names the stroke it removed.
func Apply(store *board.Store, msg *Message) (*Message, error) {
	switch msg.Type {
	case TypeDrawingEnd:
		return applyDrawingEnd(store, msg)
	case TypeHistoryUndo:
		return applyUndo(store, msg)
	case TypeStrokesMove:
		var p StrokesMovePayload
		if err := msg.Decode(&p); err != nil {
			return nil, err
		}
		store.TranslateStrokes(p.StrokeIDs, p.DX, p.DY)
		return msg, nil
	case TypeElementUpdate:
		var p ElementUpdatePayload
		if err := msg.Decode(&p); err != nil {
			return nil, err
		}
		if _, err := store.UpdateElement(p.ID, p.Patch); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeElementsCreate:
		var p ElementsCreatePayload
		if err := msg.Decode(&p); err != nil {
			return nil, err
		}
		store.CreateElements(p.Elements...)
		return msg, nil
	case TypeBoardClear:
		store.Clear()
		return msg, nil
	default:
		return nil, fmt.Errorf("apply %s: %w", msg.Type, ErrNotMutation)
	}
}

func applyDrawingEnd(store *board.Store, msg *Message) (*Message, error) {
	var p DrawingEndPayload
	if err := msg.Decode(&p); err != nil {
		return nil, err
	}
	if msg.UserID != "" {
		p.Stroke.Origin = board.Origin{UserID: msg.UserID, Username: msg.Username}
	}
	if err := store.CommitStroke(p.Stroke); err != nil {
		return nil, err
	}
	return restamp(msg, p)
}

func applyUndo(store *board.Store, msg *Message) (*Message, error) {
	var p HistoryUndoPayload
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&p); err != nil {
			return nil, err
		}
	}
	if len(p.StrokeIDs) == 0 {
		id, ok := store.UndoLast(msg.UserID)
		if !ok {
			return nil, fmt.Errorf("undo for %s: %w", msg.UserID, ErrNothingToUndo)
		}
		p.StrokeIDs = []string{id}
		return restamp(msg, p)
	}
	store.DeleteStrokes(p.StrokeIDs)
	return msg, nil
}

func restamp(msg *Message, payload any) (*Message, error) {
	out, err := NewMessage(msg.Type, payload)
	if err != nil {
		return nil, err
	}
	out.BoardID = msg.BoardID
	out.ClientID = msg.ClientID
	out.UserID = msg.UserID
	out.Username = msg.Username
	return out, nil
}

// maxEventLog bounds the mutations kept for room:data replay.
const maxEventLog = 500

// BoardState holds the authoritative layers for a room and the most recent
// applied mutations.
type BoardState struct {
	mu    sync.Mutex
	store *board.Store
	opLog []Message
}

func NewBoardState(layers board.Layers) *BoardState {
	return &BoardState{store: board.NewStore(layers)}
}

func (bs *BoardState) Snapshot() board.Layers {
	return bs.store.Snapshot()
}

// ApplyMessage applies a mutation and records it. It returns the message
// to broadcast.
func (bs *BoardState) ApplyMessage(msg *Message) (*Message, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	out, err := Apply(bs.store, msg)
	if err != nil {
		return nil, err
	}
	if len(bs.opLog) == maxEventLog {
		bs.opLog = slices.Delete(bs.opLog, 0, 1)
	}
	bs.opLog = append(bs.opLog, *out)
	return out, nil
}

// Log returns the most recent applied mutations, oldest first.
func (bs *BoardState) Log() []Message {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return slices.Clone(bs.opLog)
}
