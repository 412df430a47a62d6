package main

import "fmt"

// channel fans frames out to every websocket subscribed to one hub.
type channel struct {
	name        string
	queue       queue
	connections connections
}

type connections map[*connection]interface {
}

func newChannel(name string) *channel {
	return &channel{
		name:        name,
		queue:       make(queue, 16),
		connections: make(connections),
	}
}

func (c *channel) run() {
	incr("channels", 1)
	defer decr("channels", 1)
	for cmd := range c.queue {
		switch cmd.cmd {
		case SUBSCRIBE:
			c.subscribe(cmd.conn)
		case UNSUBSCRIBE:
			c.unsubscribe(cmd.conn)
		case PUBLISH:
			c.publish(cmd.text)
		default:
			panic(fmt.Sprintf("unexpected channel cmd: %v\n", cmd))
		}
	}
}

func (c *channel) subscribe(conn *connection) {
	c.connections[conn] = nil
}

func (c *channel) unsubscribe(conn *connection) {
	if _, ok := c.connections[conn]; ok {
		close(conn.send)
		delete(c.connections, conn)
	}
}

func (c *channel) publish(text []byte) {
	if len(text) == 0 {
		return
	}
	if len(c.connections) == 0 {
		mark("drops", 1)
		return
	}
	for conn := range c.connections {
		select {
		case conn.send <- text:
		default:
			// Slow subscriber; its writer sees the closed send channel
			// and hangs up.
			c.unsubscribe(conn)
		}
	}
}
