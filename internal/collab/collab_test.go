package collab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inkboard/inkboard/client-go/internal/board"
	"github.com/inkboard/inkboard/client-go/internal/geom"
)

// newRelay serves a hub over httptest. The token query parameter is taken
// as the user id.
func newRelay(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boardID := strings.TrimPrefix(r.URL.Path, "/ws/board/")
		user := r.URL.Query().Get("token")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, user, strings.ToUpper(user), boardID, uuid.NewString())
		hub.Register(client)
		go client.WritePump(r.Context())
		client.ReadPump(r.Context())
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

type testPeer struct {
	*Peer
	msgs chan *Message
}

func join(t *testing.T, base, boardID, user string) *testPeer {
	t.Helper()
	u, err := BoardURL(base, boardID, user)
	if err != nil {
		t.Fatalf("BoardURL: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := Dial(ctx, u)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	tp := &testPeer{Peer: p, msgs: make(chan *Message, 64)}
	go func() {
		_ = p.Run(context.Background(), func(m *Message) { tp.msgs <- m })
	}()
	t.Cleanup(func() { _ = p.Close() })
	return tp
}

// expect waits for the next message of type typ, skipping others.
func (p *testPeer) expect(t *testing.T, typ string) *Message {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case m := <-p.msgs:
			if m.Type == typ {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
			return nil
		}
	}
}

func (p *testPeer) send(t *testing.T, typ string, payload any) {
	t.Helper()
	if err := p.Send(typ, payload); err != nil {
		t.Fatalf("Send %s: %v", typ, err)
	}
}

func TestRelayDrawingSession(t *testing.T) {
	hub, base := newRelay(t)

	alice := join(t, base, "b1", "alice")
	var data RoomDataPayload
	if err := alice.expect(t, TypeRoomData).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if len(data.Participants) != 1 || len(data.Layers.Strokes) != 0 {
		t.Fatalf("initial room data = %+v", data)
	}

	bob := join(t, base, "b1", "bob")
	if err := bob.expect(t, TypeRoomData).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if len(data.Participants) != 2 {
		t.Errorf("participants = %+v", data.Participants)
	}
	var joined PresencePayload
	if err := alice.expect(t, TypeUserJoin).Decode(&joined); err != nil {
		t.Fatal(err)
	}
	if joined.User.UserID != "bob" || joined.User.Username != "BOB" {
		t.Errorf("join = %+v", joined)
	}

	stroke := board.Stroke{ID: "stroke_1", Type: board.StrokePencil, Points: []geom.Point{{X: 0, Y: 0}}, Color: "#fff", BrushSize: 3}
	alice.send(t, TypeDrawingStart, DrawingStartPayload{Stroke: stroke})
	start := bob.expect(t, TypeDrawingStart)
	if start.UserID != "alice" || start.Username != "ALICE" {
		t.Errorf("relayed start stamped %q/%q", start.UserID, start.Username)
	}

	alice.send(t, TypeDrawingMove, DrawingMovePayload{StrokeID: stroke.ID, Point: geom.Pt(5, 5)})
	var move DrawingMovePayload
	if err := bob.expect(t, TypeDrawingMove).Decode(&move); err != nil {
		t.Fatal(err)
	}
	if move.Point != geom.Pt(5, 5) {
		t.Errorf("move point = %v", move.Point)
	}

	stroke.Points = append(stroke.Points, geom.Pt(5, 5))
	alice.send(t, TypeDrawingEnd, DrawingEndPayload{Stroke: stroke})
	var end DrawingEndPayload
	if err := bob.expect(t, TypeDrawingEnd).Decode(&end); err != nil {
		t.Fatal(err)
	}
	if end.Stroke.Origin.UserID != "alice" {
		t.Errorf("committed stroke origin = %+v", end.Stroke.Origin)
	}
	if snap := hub.Board("b1").Snapshot(); len(snap.Strokes) != 1 || snap.Strokes[0].ID != "stroke_1" {
		t.Errorf("room layers = %+v", snap)
	}

	// An empty undo is resolved by the server and reaches the sender too.
	alice.send(t, TypeHistoryUndo, HistoryUndoPayload{})
	for _, p := range []*testPeer{alice, bob} {
		var undo HistoryUndoPayload
		if err := p.expect(t, TypeHistoryUndo).Decode(&undo); err != nil {
			t.Fatal(err)
		}
		if len(undo.StrokeIDs) != 1 || undo.StrokeIDs[0] != "stroke_1" {
			t.Errorf("undo = %+v", undo)
		}
	}

	bob.Close()
	var left PresencePayload
	if err := alice.expect(t, TypeUserLeave).Decode(&left); err != nil {
		t.Fatal(err)
	}
	if left.User.UserID != "bob" || len(left.Participants) != 1 {
		t.Errorf("leave = %+v", left)
	}
}

func TestRelayRejectsInvalidMutation(t *testing.T) {
	_, base := newRelay(t)
	alice := join(t, base, "b2", "alice")
	alice.expect(t, TypeRoomData)

	x := 10.0
	alice.send(t, TypeElementUpdate, ElementUpdatePayload{ID: "missing", Patch: board.ElementPatch{X: &x}})
	var e ErrorPayload
	if err := alice.expect(t, TypeError).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(e.Message, "missing") {
		t.Errorf("error = %q", e.Message)
	}
}

func TestLateJoinerReceivesContent(t *testing.T) {
	_, base := newRelay(t)
	alice := join(t, base, "b3", "alice")
	alice.expect(t, TypeRoomData)

	alice.send(t, TypeElementsCreate, ElementsCreatePayload{Elements: []board.Element{{ID: "el_1", Type: board.ElementBox, Text: "hi"}}})
	// Round trip through the relay so the mutation is applied before bob joins.
	alice.send(t, TypeHistoryUndo, HistoryUndoPayload{})
	alice.expect(t, TypeError)

	bob := join(t, base, "b3", "bob")
	var data RoomDataPayload
	if err := bob.expect(t, TypeRoomData).Decode(&data); err != nil {
		t.Fatal(err)
	}
	if len(data.Layers.Elements) != 1 || data.Layers.Elements[0].Text != "hi" {
		t.Errorf("late joiner layers = %+v", data.Layers)
	}
	if len(data.EventLog) != 1 || data.EventLog[0].Type != TypeElementsCreate {
		t.Errorf("event log = %+v", data.EventLog)
	}
}

func TestApply(t *testing.T) {
	store := board.NewStore(board.Layers{})
	mustMsg := func(typ string, payload any) *Message {
		m, err := NewMessage(typ, payload)
		if err != nil {
			t.Fatal(err)
		}
		m.UserID = "u1"
		return m
	}

	s := board.Stroke{ID: "s1", Type: board.StrokePencil, Points: []geom.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	if _, err := Apply(store, mustMsg(TypeDrawingEnd, DrawingEndPayload{Stroke: s})); err != nil {
		t.Fatalf("drawing:end: %v", err)
	}
	if _, err := Apply(store, mustMsg(TypeStrokesMove, StrokesMovePayload{StrokeIDs: []string{"s1"}, DX: 10, DY: -1})); err != nil {
		t.Fatalf("strokes:move: %v", err)
	}
	snap := store.Snapshot()
	if got := snap.Strokes[0].Points[0]; got != geom.Pt(11, 0) {
		t.Errorf("moved point = %v", got)
	}
	if snap.Strokes[0].Origin.UserID != "u1" {
		t.Errorf("origin = %+v", snap.Strokes[0].Origin)
	}

	if _, err := Apply(store, mustMsg(TypeHistoryUndo, HistoryUndoPayload{StrokeIDs: []string{"s1"}})); err != nil {
		t.Fatalf("history:undo: %v", err)
	}
	if _, err := Apply(store, mustMsg(TypeHistoryUndo, nil)); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo on empty board err = %v", err)
	}
	if _, err := Apply(store, mustMsg(TypeLaserMove, LaserMovePayload{})); !errors.Is(err, ErrNotMutation) {
		t.Errorf("laser apply err = %v", err)
	}
	if _, err := Apply(store, mustMsg(TypeDrawingEnd, DrawingEndPayload{})); !errors.Is(err, board.ErrInvalidStroke) {
		t.Errorf("empty stroke err = %v", err)
	}

	if _, err := Apply(store, mustMsg(TypeElementsCreate, ElementsCreatePayload{Elements: []board.Element{{ID: "e1", Type: board.ElementBox}}})); err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(store, mustMsg(TypeBoardClear, nil)); err != nil {
		t.Fatal(err)
	}
	if snap := store.Snapshot(); len(snap.Elements) != 0 || len(snap.Strokes) != 0 {
		t.Errorf("after clear = %+v", snap)
	}
}

func TestEventLogIsBounded(t *testing.T) {
	bs := NewBoardState(board.Layers{Strokes: []board.Stroke{
		{ID: "s1", Type: board.StrokePencil, Points: []geom.Point{{X: 0, Y: 0}}},
	}})

	total := maxEventLog + 100
	for i := range total {
		m, err := NewMessage(TypeStrokesMove, StrokesMovePayload{StrokeIDs: []string{"s1"}, DX: float64(i), DY: 0})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := bs.ApplyMessage(m); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	log := bs.Log()
	if len(log) != maxEventLog {
		t.Fatalf("log length = %d, want %d", len(log), maxEventLog)
	}
	var first, last StrokesMovePayload
	if err := log[0].Decode(&first); err != nil {
		t.Fatal(err)
	}
	if err := log[len(log)-1].Decode(&last); err != nil {
		t.Fatal(err)
	}
	if first.DX != float64(total-maxEventLog) || last.DX != float64(total-1) {
		t.Errorf("log spans dx %v..%v, want %d..%d", first.DX, last.DX, total-maxEventLog, total-1)
	}
}

func TestPresenceCountsConnections(t *testing.T) {
	pm := NewPresenceManager()
	if !pm.Add(Participant{UserID: "u1", Username: "zed"}) {
		t.Error("first connection not reported as join")
	}
	if pm.Add(Participant{UserID: "u1", Username: "zed"}) {
		t.Error("second connection reported as join")
	}
	pm.Add(Participant{UserID: "u2", Username: "amy"})

	if got := pm.Participants(); len(got) != 2 || got[0].Username != "amy" {
		t.Errorf("participants = %+v", got)
	}
	if pm.Remove("u1") {
		t.Error("user left with a connection still open")
	}
	if !pm.Remove("u1") {
		t.Error("last connection close not reported as leave")
	}
	if pm.Remove("ghost") {
		t.Error("unknown user reported as leave")
	}
}

func TestBoardURL(t *testing.T) {
	tests := []struct {
		base, board, token, want string
	}{
		{"ws://localhost:8080", "b1", "", "ws://localhost:8080/ws/board/b1"},
		{"wss://relay.example/", "team", "abc", "wss://relay.example/ws/board/team?token=abc"},
	}
	for _, tt := range tests {
		got, err := BoardURL(tt.base, tt.board, tt.token)
		if err != nil || got != tt.want {
			t.Errorf("BoardURL(%q,%q,%q) = %q, %v; want %q", tt.base, tt.board, tt.token, got, err, tt.want)
		}
	}
}
