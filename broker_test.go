package main

import (
	"testing"
)

func TestSubscribe(t *testing.T) {
	b := newBroker(16)

	if len(b.channels) != 0 {
		t.Fatal("Expectation: 0, Received:", len(b.channels))
	}

	// subscribing to a new hub should
	// add a (1) channel to the broker
	b.subscribe(command{cmd: SUBSCRIBE, name: "taxidata", conn: newTestConnection()})
	if len(b.channels) != 1 {
		t.Fatal("Expectation: 1, Received:", len(b.channels))
	}

	// subscribing to the same hub multiple times
	// should use same channel
	b.subscribe(command{cmd: SUBSCRIBE, name: "taxidata", conn: newTestConnection()})
	b.subscribe(command{cmd: SUBSCRIBE, name: "taxidata", conn: newTestConnection()})
	if len(b.channels) != 1 {
		t.Fatal("Expectation: 1, Received:", len(b.channels))
	}

	b.subscribe(command{cmd: SUBSCRIBE, name: "busdata", conn: newTestConnection()})
	if len(b.channels) != 2 {
		t.Fatal("Expectation: 2, Received:", len(b.channels))
	}
}

func TestSubscribeHandsOutChannel(t *testing.T) {
	b := newBroker(16)
	conn := newTestConnection()
	b.subscribe(command{cmd: SUBSCRIBE, name: "taxidata", conn: conn})

	c := <-conn.control
	if c != b.channels["taxidata"] {
		t.Fatal("Expectation: connection receives its hub's channel")
	}
}

func TestPublish(t *testing.T) {
	b := newBroker(16)
	drops := m.count("drops")

	// Publishing to a hub nobody subscribed to
	// should drop the message
	b.publish(command{cmd: PUBLISH, name: "taxidata", text: []byte("taxi 1")})
	if _, ok := b.channels["taxidata"]; ok {
		t.Fatal("Expectation: Channel should not exist without a Subscriber")
	}
	if got := m.count("drops"); got != drops+1 {
		t.Fatal("Expectation:", drops+1, "Received:", got)
	}

	// Publishing to an open channel
	// pushes the command onto the channel queue
	c := newChannel("taxidata")
	b.channels["taxidata"] = c
	b.publish(command{cmd: PUBLISH, name: "taxidata", text: []byte("taxi 2")})
	cmd := <-c.queue
	if string(cmd.text) != "taxi 2" {
		t.Fatal("Expectation: taxi 2, Received:", string(cmd.text))
	}
}

func TestPublishFullChannelDrops(t *testing.T) {
	b := newBroker(16)
	c := newChannel("taxidata")
	b.channels["taxidata"] = c
	for i := 0; i < cap(c.queue); i++ {
		c.queue <- command{cmd: PUBLISH, text: []byte("x")}
	}
	drops := m.count("drops")

	b.publish(command{cmd: PUBLISH, name: "taxidata", text: []byte("overflow")})
	if got := m.count("drops"); got != drops+1 {
		t.Fatal("Expectation:", drops+1, "Received:", got)
	}
	if len(c.queue) != cap(c.queue) {
		t.Fatal("Expectation: queue unchanged, Received length:", len(c.queue))
	}
}

func TestSubmit(t *testing.T) {
	b := newBroker(1)

	if !b.submit("taxidata", []byte("first")) {
		t.Fatal("Expectation: submit accepted on an empty queue")
	}
	// Nobody drains the queue, so the second submit must fail fast.
	if b.submit("taxidata", []byte("second")) {
		t.Fatal("Expectation: submit rejected on a full queue")
	}

	cmd := <-b.queue
	if cmd.cmd != PUBLISH || cmd.name != "taxidata" || string(cmd.text) != "first" {
		t.Fatal("Expectation: PUBLISH taxidata first, Received:", cmd.cmd, cmd.name, string(cmd.text))
	}
}
