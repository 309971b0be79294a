// Package session joins a canvas engine to a board room. Local edits are
// applied to the local layer store and sent to the room; room messages
// update the store and the engine's remote overlays.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/collab"
	"github.com/inkboard/inkboard/client-go/internal/engine"
	"github.com/inkboard/inkboard/client-go/internal/geom"
	"github.com/inkboard/inkboard/client-go/internal/render"
	"github.com/inkboard/inkboard/client-go/internal/typeid"
)

type Session struct {
	ctx       context.Context
	store     *board.Store
	engine    *engine.Engine
	transport engine.Transport

	mu           sync.Mutex
	participants []collab.Participant
	redo         []board.Stroke
	synced       int64 // store version last pushed to the engine
}

// New creates a session. ui receives the engine's selection, viewport and
// editor notifications; its layer callbacks are ignored. transport and
// provider may be nil.
func New(ctx context.Context, opts engine.Options, fonts *render.Fonts, transport engine.Transport, provider engine.BitmapProvider, ui engine.Callbacks) *Session {
	s := &Session{
		ctx:       ctx,
		store:     board.NewStore(board.Layers{}),
		transport: transport,
	}
	s.engine = engine.New(opts, fonts, transport, provider, engine.Callbacks{
		OnStrokeFinalized:   s.strokeFinalized,
		OnStrokeErased:      s.strokeErased,
		OnStrokesDeleted:    s.removeStrokes,
		OnStrokesTranslated: s.strokesTranslated,
		OnElementUpdated:    s.elementUpdated,
		OnTextCreated:       func(e board.Element) { s.AddElements(e) },
		OnSelectionChanged:  ui.OnSelectionChanged,
		OnViewportChanged:   ui.OnViewportChanged,
		OnEditorChanged:     ui.OnEditorChanged,
	})
	return s
}

func (s *Session) Engine() *engine.Engine { return s.engine }

// Layers returns a snapshot of the local layer store.
func (s *Session) Layers() board.Layers { return s.store.Snapshot() }

func (s *Session) Participants() []collab.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.participants)
}

func (s *Session) Close() error { return s.engine.Close() }

// sync pushes the store to the engine unless it is unchanged since the
// last push.
func (s *Session) sync() {
	v := s.store.Version()
	s.mu.Lock()
	if v == s.synced {
		s.mu.Unlock()
		return
	}
	s.synced = v
	s.mu.Unlock()
	s.engine.SetLayers(s.ctx, s.store.Snapshot())
}

func (s *Session) send(typ string, payload any) {
	if s.transport == nil {
		return
	}
	if err := s.transport.Send(typ, payload); err != nil {
		slog.Warn("send event", "type", typ, "error", err)
	}
}

// --- Local edits ---

func (s *Session) strokeFinalized(st board.Stroke) {
	if err := s.store.CommitStroke(st); err != nil {
		slog.Warn("commit stroke", "error", err)
		return
	}
	s.mu.Lock()
	s.redo = nil
	s.mu.Unlock()

	s.sync()
	s.send(collab.TypeDrawingEnd, collab.DrawingEndPayload{Stroke: st})
}

func (s *Session) removeStrokes(ids []string) {
	if s.store.DeleteStrokes(ids) == 0 {
		return
	}
	s.sync()
	s.send(collab.TypeHistoryUndo, collab.HistoryUndoPayload{StrokeIDs: ids})
}

func (s *Session) strokeErased(id string) {
	if err := s.store.EraseStroke(id); err != nil {
		slog.Debug("erase stroke", "error", err)
		return
	}
	s.sync()
	s.send(collab.TypeHistoryUndo, collab.HistoryUndoPayload{StrokeIDs: []string{id}})
}

func (s *Session) strokesTranslated(ids []string, dx, dy float64) {
	if s.store.TranslateStrokes(ids, dx, dy) == 0 {
		return
	}
	s.sync()
	s.send(collab.TypeStrokesMove, collab.StrokesMovePayload{StrokeIDs: ids, DX: dx, DY: dy})
}

func (s *Session) elementUpdated(id string, patch board.ElementPatch) {
	if _, err := s.store.UpdateElement(id, patch); err != nil {
		slog.Warn("update element", "error", err)
		return
	}
	s.sync()
	s.send(collab.TypeElementUpdate, collab.ElementUpdatePayload{ID: id, Patch: patch})
}

// AddElements adds elements to the board, as text entry, templates and
// image placement do.
func (s *Session) AddElements(elems ...board.Element) {
	if len(elems) == 0 {
		return
	}
	s.store.CreateElements(elems...)
	s.sync()
	s.send(collab.TypeElementsCreate, collab.ElementsCreatePayload{Elements: elems})
}

// AddTemplate places a named template board.
func (s *Session) AddTemplate(name string) error {
	elems, err := board.Template(name)
	if err != nil {
		return err
	}
	s.AddElements(elems...)
	return nil
}

// AddImage places an image element with its top-left corner at p.
func (s *Session) AddImage(src string, p geom.Point, width, height float64) board.Element {
	e := board.Element{
		ID:     typeid.NewElementID(),
		Type:   board.ElementImage,
		X:      p.X,
		Y:      p.Y,
		Width:  width,
		Height: height,
		Src:    src,
	}
	s.AddElements(e)
	return e
}

// Undo removes the most recent locally drawn stroke.
func (s *Session) Undo() bool {
	layers := s.store.Snapshot()
	for i := len(layers.Strokes) - 1; i >= 0; i-- {
		st := layers.Strokes[i]
		if st.Origin.IsRemote() {
			continue
		}
		s.store.DeleteStrokes([]string{st.ID})
		s.mu.Lock()
		s.redo = append(s.redo, st)
		s.mu.Unlock()

		s.sync()
		s.send(collab.TypeHistoryUndo, collab.HistoryUndoPayload{StrokeIDs: []string{st.ID}})
		return true
	}
	return false
}

// Redo restores the most recently undone stroke.
func (s *Session) Redo() bool {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return false
	}
	st := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.mu.Unlock()

	if err := s.store.CommitStroke(st); err != nil {
		slog.Warn("redo stroke", "error", err)
		return false
	}
	s.sync()
	s.send(collab.TypeDrawingEnd, collab.DrawingEndPayload{Stroke: st})
	return true
}

// Clear empties the board for everyone in the room.
func (s *Session) Clear() {
	s.store.Clear()
	s.sync()
	s.send(collab.TypeBoardClear, nil)
}

// --- Room messages ---

// Handle applies a message received from the room.
func (s *Session) Handle(msg *collab.Message) {
	switch msg.Type {
	case collab.TypeRoomData:
		var p collab.RoomDataPayload
		if err := msg.Decode(&p); err != nil {
			slog.Warn("invalid message", "type", msg.Type, "error", err)
			return
		}
		s.store.Reset(p.Layers)
		s.setParticipants(p.Participants)
		s.sync()

	case collab.TypeUserJoin, collab.TypeUserLeave:
		var p collab.PresencePayload
		if err := msg.Decode(&p); err != nil {
			slog.Warn("invalid message", "type", msg.Type, "error", err)
			return
		}
		s.setParticipants(p.Participants)
		if msg.Type == collab.TypeUserLeave {
			s.engine.PeerLeft(p.User.UserID)
		}

	case collab.TypeDrawingStart:
		var p collab.DrawingStartPayload
		if err := msg.Decode(&p); err != nil {
			slog.Warn("invalid message", "type", msg.Type, "error", err)
			return
		}
		s.engine.RemoteDrawingStart(msg.UserID, p.Stroke)

	case collab.TypeDrawingMove:
		var p collab.DrawingMovePayload
		if err := msg.Decode(&p); err != nil {
			slog.Warn("invalid message", "type", msg.Type, "error", err)
			return
		}
		s.engine.RemoteDrawingMove(msg.UserID, p.Point)

	case collab.TypeLaserMove:
		var p collab.LaserMovePayload
		if err := msg.Decode(&p); err != nil {
			slog.Warn("invalid message", "type", msg.Type, "error", err)
			return
		}
		s.engine.RemoteLaserMove(msg.UserID, msg.Username, p.Point)

	case collab.TypeLaserStop:
		s.engine.RemoteLaserStop(msg.UserID)

	case collab.TypeError:
		var p collab.ErrorPayload
		_ = msg.Decode(&p)
		slog.Warn("room error", "message", p.Message)

	default:
		if !collab.IsMutation(msg.Type) {
			slog.Debug("ignored message", "type", msg.Type)
			return
		}
		if _, err := collab.Apply(s.store, msg); err != nil {
			slog.Warn("apply remote mutation", "type", msg.Type, "user", msg.UserID, "error", err)
			return
		}
		if msg.Type == collab.TypeDrawingEnd {
			var p collab.DrawingEndPayload
			if err := msg.Decode(&p); err == nil {
				s.engine.RemoteDrawingEnd(msg.UserID, p.Stroke.ID)
			}
		}
		s.sync()
	}
}

func (s *Session) setParticipants(p []collab.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = p
}
