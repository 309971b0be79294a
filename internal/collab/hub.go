package collab

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkboard/inkboard/client-go/internal/board"
)

type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *BoardState
}

func NewRoom(boardID string, state *BoardState) *Room {
	return &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    state,
	}
}

// Hub routes messages between the clients of each board room. Board
// content outlives the room: a board emptied of clients keeps its layers
// for the next joiner.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room        // boardID -> room
	boards     map[string]*BoardState  // boardID -> content
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		boards:     make(map[string]*BoardState),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Board returns the content of a board, creating an empty one on first use.
func (h *Hub) Board(boardID string) *BoardState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.boardLocked(boardID)
}

func (h *Hub) boardLocked(boardID string) *BoardState {
	bs, ok := h.boards[boardID]
	if !ok {
		bs = NewBoardState(board.Layers{})
		h.boards[boardID] = bs
	}
	return bs
}

// Participants returns the users connected to a board.
func (h *Hub) Participants(boardID string) []Participant {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return room.presence.Participants()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		room = NewRoom(client.BoardID, h.boardLocked(client.BoardID))
		h.rooms[client.BoardID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	joined := room.presence.Add(client.Participant())
	participants := room.presence.Participants()

	// Send current board state to new client
	data, err := NewMessage(TypeRoomData, RoomDataPayload{
		Layers:       room.state.Snapshot(),
		Participants: participants,
		EventLog:     room.state.Log(),
	})
	if err != nil {
		slog.Error("build room data", "error", err, "board", client.BoardID)
	} else {
		client.Send(data)
	}

	if joined {
		h.broadcastPresence(client, TypeUserJoin, participants)
	}

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.done)

	if len(room.clients) == 0 {
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if room.presence.Remove(client.UserID) {
		h.broadcastPresence(client, TypeUserLeave, room.presence.Participants())
	}

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) broadcastPresence(client *Client, typ string, participants []Participant) {
	msg, err := NewMessage(typ, PresencePayload{User: client.Participant(), Participants: participants})
	if err != nil {
		slog.Error("build presence message", "error", err, "type", typ)
		return
	}
	msg.UserID = client.UserID
	msg.Username = client.Username
	h.broadcastToRoom(client.BoardID, msg, client.ClientID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch {
	case msg.Type == TypeDrawingStart || msg.Type == TypeDrawingMove ||
		msg.Type == TypeLaserMove || msg.Type == TypeLaserStop:
		h.broadcastToRoom(sender.BoardID, msg, sender.ClientID)
	case IsMutation(msg.Type):
		h.handleMutation(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleMutation(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	out, err := room.state.ApplyMessage(msg)
	if err != nil {
		slog.Warn("rejected mutation", "type", msg.Type, "user", sender.UserID, "error", err)
		if reply, merr := NewMessage(TypeError, ErrorPayload{Message: err.Error()}); merr == nil {
			sender.Send(reply)
		}
		return
	}

	// An undo resolved by the server is news to the sender as well.
	exclude := sender.ClientID
	if msg.Type == TypeHistoryUndo && out != msg {
		exclude = ""
	}
	h.broadcastToRoom(sender.BoardID, out, exclude)
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
