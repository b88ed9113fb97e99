// Copyright (c) 2014 The SurgeMQ Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package broker

import (
	"bufio"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/pktrelay/broker/message"
	"github.com/pktrelay/broker/registry"
	"github.com/pktrelay/broker/topiclog"
)

// state is a connection's place in the accept/identify state machine.
// The pending-address table still exists in registry for the address-
// reservation half, but a handle's own phase is never ambiguous: it is
// either reserved (accepted, identity unknown) or online(identity).
type state uint8

const (
	reserved state = iota
	online
)

// interMessagePause is the inter-message delay between catch-up sends,
// to avoid coalescing at the receiver when Nagle is disabled on some
// platforms.
const interMessagePause = 10 * time.Microsecond

// connection is one accepted stream handle's state machine.
type connection struct {
	srv  *Server
	conn net.Conn
	addr string

	state    state
	identity string
}

// readLoop decodes one frame at a time until decode fails (EOF or any
// transient error), then disconnects.
func (c *connection) readLoop() {
	r := bufio.NewReader(c.conn)
	for {
		frame, err := message.DecodeFrame(r)
		if err != nil {
			break
		}
		if !c.handleFrame(frame) {
			break
		}
	}
	c.srv.disconnectHandle(c.conn)
}

// handleFrame drives the state machine for one decoded frame. It
// returns false when the read loop should stop without waiting for EOF
// — today only the duplicate-CONNECT case, whose handle is closed
// immediately after the CONNECT_DUP reply.
func (c *connection) handleFrame(frame message.Frame) bool {
	switch f := frame.(type) {
	case message.Connect:
		return c.handleConnect(f.Identity)

	case message.Subscribe:
		if c.state != online {
			return true
		}
		c.handleSubscribe(f.Topic, f.SF)

	case message.Unsubscribe:
		if c.state != online {
			return true
		}
		c.handleUnsubscribe(f.TopicID)

	default:
		// TopicID, ConfirmUnsubscribe, Data and ConnectDup are
		// broker->subscriber frames; a subscriber sending one is
		// simply ignored.
	}
	return true
}

// handleConnect implements the three CONNECT outcomes: a brand-new
// identity is admitted online; a known, offline identity is rebound and
// runs reconnect catch-up; a known, already-online identity is refused
// with CONNECT_DUP while the incumbent session is left untouched.
func (c *connection) handleConnect(identity string) bool {
	var dup bool
	var plan []catchUpEntry

	c.srv.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		reg.ConsumeReservedAddress(c.conn)

		if reg.UserExists(identity) {
			sub, _ := reg.GetUserByIdentity(identity)
			if sub.Status == registry.Online {
				dup = true
				return
			}
			reg.Rebind(identity, c.conn, c.addr)
			plan = c.srv.buildCatchUp(reg, logs, sub)
			return
		}

		reg.AddUser(identity, c.conn, c.addr)
	})

	if dup {
		c.srv.log.Warn("duplicate CONNECT, incumbent session left untouched",
			zap.String("identity", identity), zap.String("addr", c.addr))
		c.write(message.ConnectDup{})
		c.conn.Close()
		return false
	}

	c.identity = identity
	c.state = online

	c.sendCatchUp(plan)
	return true
}

// handleSubscribe ensures the topic exists, records the subscription
// with a cursor starting at the log's current last_sequence, and
// replies TOPIC_ID.
func (c *connection) handleSubscribe(name string, sf bool) {
	var topicID uint32

	c.srv.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		topicID = reg.AddTopic(name)

		last := int64(-1)
		if tlog, err := logs.Get(topicID, name); err == nil {
			last = tlog.LastSequence()
		}
		reg.Subscribe(c.identity, topicID, sf, last)
	})

	c.write(message.TopicID{Topic: name, ID: topicID})
}

// handleUnsubscribe drops the subscription and replies CONFIRM_U.
func (c *connection) handleUnsubscribe(topicID uint32) {
	c.srv.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		reg.Unsubscribe(c.identity, topicID)
	})

	c.write(message.ConfirmUnsubscribe{TopicID: topicID})
}

// catchUpEntry is one subscribed topic's catch-up plan, gathered inside
// a dispatchSync closure so the Range read is serialized with any
// concurrent Append, then sent from the connection's own goroutine so a
// slow write never holds up the dispatch goroutine.
type catchUpEntry struct {
	name     string
	id       uint32
	messages []string
}

// buildCatchUp implements reconnect catch-up: every subscribed topic
// gets a TOPIC_ID entry; topics with sf=true whose cursor trails the
// log's last_sequence also get the missed range, and the cursor
// advances to match. Order across topics is unspecified; order within
// a topic is the ascending order Range already returns.
func (s *Server) buildCatchUp(reg *registry.Registry, logs *topiclog.Manager, sub *registry.Subscriber) []catchUpEntry {
	entries := make([]catchUpEntry, 0, len(sub.Subscriptions))

	for topicID, subscription := range sub.Subscriptions {
		name, _ := reg.TopicName(topicID)
		entry := catchUpEntry{name: name, id: topicID}

		if subscription.SF {
			tlog, err := logs.Get(topicID, name)
			if err != nil {
				s.log.Error("topic log unavailable during catch-up", zap.String("topic", name), zap.Error(err))
			} else if subscription.LastDeliveredSequence < tlog.LastSequence() {
				msgs, err := tlog.Range(subscription.LastDeliveredSequence+1, tlog.LastSequence())
				if err != nil {
					s.log.Error("catch-up range failed", zap.String("topic", name), zap.Error(err))
				} else {
					entry.messages = msgs
					subscription.LastDeliveredSequence = tlog.LastSequence()
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries
}

// sendCatchUp sends the gathered plan: a TOPIC_ID per subscribed topic,
// then each replayed message as DATA, pacing every send by
// interMessagePause.
func (c *connection) sendCatchUp(entries []catchUpEntry) {
	for _, entry := range entries {
		if !c.write(message.TopicID{Topic: entry.name, ID: entry.id}) {
			return
		}
		for _, rendered := range entry.messages {
			if !c.write(message.Data{Rendered: rendered}) {
				return
			}
		}
	}
}

func (c *connection) write(frame message.Frame) bool {
	if _, err := c.conn.Write(frame.Encode()); err != nil {
		c.srv.log.Debug("write failed", zap.String("identity", c.identity), zap.Error(err))
		return false
	}
	time.Sleep(interMessagePause)
	return true
}
