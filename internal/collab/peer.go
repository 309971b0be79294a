package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/coder/websocket"
)

var (
	ErrPeerClosed     = errors.New("peer closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// BoardURL builds the websocket address of a board room on the relay at
// base (ws:// or wss://). An empty token is omitted.
func BoardURL(base, boardID, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	u = u.JoinPath("ws", "board", boardID)
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Peer is a client connection to a board room. Send never blocks; messages
// are written by Run.
type Peer struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a board room.
func Dial(ctx context.Context, boardURL string) (*Peer, error) {
	conn, _, err := websocket.Dial(ctx, boardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", boardURL, err)
	}
	conn.SetReadLimit(maxMsgSize)
	return &Peer{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}, nil
}

// Send queues an event for the room.
func (p *Peer) Send(typ string, payload any) error {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	select {
	case <-p.done:
		return ErrPeerClosed
	default:
	}
	select {
	case p.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run reads messages and hands each to handle until ctx is done or the
// connection closes. handle runs on the calling goroutine.
func (p *Peer) Run(ctx context.Context, handle func(*Message)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer p.Close()

	go p.writePump(ctx)

	for {
		_, data, err := p.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err)
			continue
		}
		handle(&msg)
	}
}

func (p *Peer) writePump(ctx context.Context) {
	for {
		select {
		case data := <-p.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := p.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err)
				p.Close()
				return
			}
		case <-p.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the connection. It is safe to call more than once.
func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close(websocket.StatusNormalClosure, "")
	})
	return err
}
