package main

import (
	"fmt"
)

type cmdType int

const (
	SUBSCRIBE cmdType = iota
	UNSUBSCRIBE
	PUBLISH
)

// command is the unit of work passed between the broker, its channels and
// the websocket connections. name is the hub the command is addressed to.
type command struct {
	cmd  cmdType
	conn *connection
	name string
	text []byte
}

type queue chan command

// broker owns the hub name -> channel map. Channels are created on first
// use and live for the lifetime of the broker; hubs are fixed at deploy time.
type broker struct {
	queue    queue
	channels channels
}

type channels map[string]*channel

func newBroker(size int) *broker {
	return &broker{
		queue:    make(queue, size),
		channels: make(channels),
	}
}

func (b *broker) run() {
	for cmd := range b.queue {
		// Forward cmds to their hub's channel queue.
		switch cmd.cmd {
		case SUBSCRIBE:
			b.subscribe(cmd)
		case PUBLISH:
			b.publish(cmd)
		default:
			panic(fmt.Sprintf("unexpected broker cmd: %v\n", cmd))
		}
	}
}

// submit hands a frame to the broker without blocking. It reports false
// when the broker queue is full.
func (b *broker) submit(name string, text []byte) bool {
	select {
	case b.queue <- command{cmd: PUBLISH, name: name, text: text}:
		return true
	default:
		return false
	}
}

func (b *broker) channel(name string) *channel {
	c, ok := b.channels[name]
	if !ok {
		c = newChannel(name)
		b.channels[name] = c
		go c.run()
	}
	return c
}

func (b *broker) subscribe(cmd command) {
	c := b.channel(cmd.name)
	// Give the connection a reference to its own channel.
	cmd.conn.control <- c
	c.queue <- cmd
}

func (b *broker) publish(cmd command) {
	c, ok := b.channels[cmd.name]
	if !ok {
		// Nobody ever subscribed to this hub.
		mark("drops", 1)
		return
	}
	select {
	case c.queue <- cmd:
	default:
		mark("drops", 1)
	}
}
