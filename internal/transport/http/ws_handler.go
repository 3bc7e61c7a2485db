package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pubquiz-service/internal/relay"
)

// WSHandler upgrades connections and pumps messages between the socket and
// the relay. Each connection gets a buffered send channel drained by a
// single writer goroutine, so broadcasts never write to the socket
// concurrently.
type WSHandler struct {
	relay    *relay.Relay
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(r *relay.Relay, log *slog.Logger) *WSHandler {
	return &WSHandler{
		relay: r,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

const sendBuffer = 16

// client adapts one websocket connection into a relay.Sender. Send never
// blocks the broadcaster: a full buffer counts as a failed send and the
// registry evicts the connection.
type client struct {
	conn *websocket.Conn
	send chan relay.Event
	done chan struct{}
}

var errSlowClient = errors.New("send buffer full")

func (c *client) Send(evt relay.Event) error {
	select {
	case c.send <- evt:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		return errSlowClient
	}
}

func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}

	cl := &client{
		conn: conn,
		send: make(chan relay.Event, sendBuffer),
		done: make(chan struct{}),
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case evt := <-cl.send:
				if err := conn.WriteJSON(evt); err != nil {
					h.log.Warn("ws write failed", "err", err)
					return
				}
			case <-cl.done:
				return
			}
		}
	}()

	for {
		var msg relay.Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.relay.Dispatch(cl, msg)
	}

	// Connection lost or closed. Membership cleanup is silent; no
	// participant-left event exists.
	h.relay.Registry().Drop(cl)
	close(cl.done)
	<-writerDone
	_ = conn.Close()
}
