package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/ayusman/airpaint/internal/app"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/speech"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types on the input websocket.
const (
	MsgTranscript  = "transcript"
	MsgSpeechError = "speech_error"
	MsgPointer     = "pointer"
	MsgLandmarks   = "landmarks"
	MsgState       = "state"
	MsgSpeak       = "speak"
)

// inbound is any message a client sends. web/app.js is the bundled client.
//
//	{"type":"transcript","text":"clear canvas","final":true}
//	{"type":"speech_error","error":"no-speech"}
//	{"type":"pointer","phase":"down","x":120,"y":340}
//	{"type":"landmarks","hands":[{"points":[{"x":0.5,"y":0.4,"z":0}, ...],"handedness":"Right","score":0.9}]}
//
// Omitting final on a transcript means final. The server sends
// {"type":"state","state":{...}} on connect and on every change, and
// {"type":"speak","text":"..."} for spoken feedback.
type inbound struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Final *bool  `json:"final"`
	Error string `json:"error"`

	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`

	Hands []inboundHand `json:"hands"`
}

type inboundHand struct {
	Points     []detector.Point3D `json:"points"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
}

type stateMessage struct {
	Type  string    `json:"type"`
	State app.State `json:"state"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub carries speech, pointer and landmark input from browsers to the
// controller and pushes state changes and spoken feedback back.
type Hub struct {
	ctrl Controller

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a Hub feeding ctrl and subscribes it to state changes.
func NewHub(ctrl Controller) *Hub {
	h := &Hub{
		ctrl:    ctrl,
		clients: make(map[*client]struct{}),
	}
	ctrl.OnChange(func(s app.State) {
		h.broadcast(stateMessage{Type: MsgState, State: s})
	})
	return h
}

// Speaker returns a Speaker that asks every connected browser to say the
// text.
func (h *Hub) Speaker() speech.Speaker {
	return speech.Func(func(text string) {
		h.broadcast(speakMessage{Type: MsgSpeak, Text: text})
	})
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writePump()
	h.sendTo(c, stateMessage{Type: MsgState, State: h.ctrl.Snapshot()})

	log.Debug("input client connected", "remote", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("input client read failed", "error", err)
			}
			break
		}
		if err := h.handle(r.Context(), data); err != nil {
			log.Warn("skipping input message", "error", err)
		}
	}
	log.Debug("input client disconnected", "remote", r.RemoteAddr)
}

// handle decodes one message and submits it to the controller.
func (h *Hub) handle(ctx context.Context, data []byte) error {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Type {
	case MsgTranscript:
		final := true
		if msg.Final != nil {
			final = *msg.Final
		}
		return h.ctrl.SubmitTranscript(ctx, app.TranscriptEvent{Text: msg.Text, Final: final})

	case MsgSpeechError:
		if msg.Error == "" {
			msg.Error = "unknown"
		}
		return h.ctrl.SubmitTranscript(ctx, app.TranscriptEvent{Err: msg.Error})

	case MsgPointer:
		phase, ok := app.ParsePointerPhase(msg.Phase)
		if !ok {
			return fmt.Errorf("unknown pointer phase %q", msg.Phase)
		}
		return h.ctrl.SubmitPointer(ctx, app.PointerEvent{
			Phase: phase,
			Point: gesture.Point{X: msg.X, Y: msg.Y},
		})

	case MsgLandmarks:
		hands := make([]detector.HandLandmarks, 0, len(msg.Hands))
		for i, in := range msg.Hands {
			if len(in.Points) != detector.NumLandmarks {
				return fmt.Errorf("hand %d has %d points, expected %d", i, len(in.Points), detector.NumLandmarks)
			}
			hand := detector.HandLandmarks{Handedness: in.Handedness, Score: in.Score}
			copy(hand.Points[:], in.Points)
			hands = append(hands, hand)
		}
		h.ctrl.SubmitFrame(app.FrameEvent{Hands: hands})
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues msg for every client. A client whose buffer is full
// misses the message.
func (h *Hub) broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("failed to encode broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Debug("client send buffer full, dropping message")
		}
	}
}

func (h *Hub) sendTo(c *client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump owns all writes to the connection. It exits when send is
// closed or a write fails.
func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
