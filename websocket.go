package main

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the subscriber.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the subscriber.
	pongWait = 60 * time.Second

	// Send pings to subscribers with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames and the occasional handshake.
	maxInboundSize = 4096
)

// websocketManager is the subset of *websocket.Conn a connection uses.
type websocketManager interface {
	wsPrepareRead()
	wsReadMessage() (int, []byte, error)
	wsWriteMessage(int, []byte) error
	wsClose()
}

type websocketInteractor struct {
	ws *websocket.Conn
}

func (w websocketInteractor) wsPrepareRead() {
	w.ws.SetReadLimit(maxInboundSize)
	w.ws.SetReadDeadline(time.Now().Add(pongWait))
	w.ws.SetPongHandler(func(string) error {
		return w.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}

func (w websocketInteractor) wsReadMessage() (int, []byte, error) {
	return w.ws.ReadMessage()
}

func (w websocketInteractor) wsWriteMessage(messageType int, payload []byte) error {
	w.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return w.ws.WriteMessage(messageType, payload)
}

func (w websocketInteractor) wsClose() {
	w.ws.Close()
}
