package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// connection is one websocket subscriber of a hub.
type connection struct {
	id      string
	control chan *channel
	channel *channel
	send    chan []byte
	w       websocketManager
	b       *broker
	name    string
	log     zerolog.Logger
}

func newConnection(w websocketManager, b *broker, name string, log zerolog.Logger) *connection {
	id := uuid.NewString()
	return &connection{
		id:      id,
		control: make(chan *channel, 1),
		send:    make(chan []byte, 256),
		w:       w,
		b:       b,
		name:    name,
		log:     log.With().Str("conn", id).Str("hub", name).Logger(),
	}
}

// run subscribes the connection and blocks until the subscriber goes away.
func (c *connection) run(ticker *mTicker) {
	c.b.queue <- command{cmd: SUBSCRIBE, conn: c, name: c.name}
	c.channel = <-c.control
	close(c.control)
	incr("websockets", 1)
	c.log.Debug().Msg("subscriber connected")

	sub := ticker.subscribe()
	defer func() {
		decr("websockets", 1)
		ticker.unsubscribe(sub)
		c.channel.queue <- command{cmd: UNSUBSCRIBE, conn: c, name: c.name}
		c.log.Debug().Msg("subscriber disconnected")
	}()
	go c.writer(sub.tick)
	c.reader()
}

func (c *connection) reader() {
	defer c.w.wsClose()
	c.w.wsPrepareRead()
	for {
		if err := c.readMessage(); err != nil {
			return
		}
	}
}

// readMessage consumes one inbound frame. Subscribers do not publish; the
// read loop only keeps pong handling and close detection going.
func (c *connection) readMessage() error {
	_, _, err := c.w.wsReadMessage()
	if err != nil {
		return err
	}
	incr("conn.recv", 1)
	return nil
}

func (c *connection) writer(tick <-chan time.Time) {
	defer c.w.wsClose()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Dropped by the channel.
				c.w.wsWriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.w.wsWriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			incr("conn.send", 1)
		case _, ok := <-tick:
			if !ok {
				return
			}
			if err := c.w.wsWriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
