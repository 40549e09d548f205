package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-room-service/internal/app"
)

// WSHandler upgrades connections and maps transport events onto the game
// service: one uuid per connection, a tagged-union inbound protocol, and
// disconnect cleanup when the socket drops.
type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.GameService, hub *Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type startGamePayload struct {
	RoomID string `json:"roomId"`
}

type submitAnswerPayload struct {
	RoomID string `json:"roomId"`
	Answer string `json:"answer"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId"`
}

// ServeWS runs one connection: register with the hub, pump outbound events
// from the hub through a single writer goroutine, and feed inbound messages
// to the service until the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{id: uuid.NewString(), send: make(chan envelope, 16)}
	h.hub.register(c)
	h.log.Debug().Str("conn", c.id).Msg("ws connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("conn", c.id).Msg("ws write error")
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.route(r.Context(), c.id, inbound)
	}

	h.service.Disconnect(c.id)
	h.hub.unregister(c.id)
	<-writerDone
	h.log.Debug().Str("conn", c.id).Msg("ws disconnected")
}

func (h *WSHandler) route(ctx context.Context, connID string, msg inboundMessage) {
	switch msg.Type {
	case "create_room":
		var p createRoomPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		h.service.CreateRoom(connID, p.Name, p.Avatar)
	case "join_room":
		var p joinRoomPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		_ = h.service.Join(p.RoomID, connID, p.Name, p.Avatar)
	case "start_game":
		var p startGamePayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		if err := h.service.Start(ctx, p.RoomID, connID); err != nil {
			h.log.Debug().Err(err).Str("room", p.RoomID).Str("conn", connID).Msg("start ignored")
		}
	case "submit_answer":
		var p submitAnswerPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		_ = h.service.SubmitAnswer(p.RoomID, connID, p.Answer)
	case "leave_room":
		var p leaveRoomPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		h.service.Leave(p.RoomID, connID)
	default:
		h.hub.ToConn(connID, app.EventError, app.ErrorPayload{Message: "unsupported message type"})
	}
}

// decode unmarshals an inbound payload; a missing payload means all-defaults.
func (h *WSHandler) decode(connID string, raw json.RawMessage, into any) bool {
	if len(raw) == 0 {
		return true
	}
	if err := json.Unmarshal(raw, into); err != nil {
		h.hub.ToConn(connID, app.EventError, app.ErrorPayload{Message: "invalid payload"})
		return false
	}
	return true
}
