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

// Package router implements the broker's fanout: a pure function over
// a registry.Registry, with no state of its own.
package router

import (
	"net"

	"github.com/pktrelay/broker/message"
	"github.com/pktrelay/broker/registry"
)

// Sender delivers a frame to a subscriber's current stream handle. It
// exists so Fanout can be exercised without a real socket in tests.
type Sender interface {
	Send(handle net.Conn, frame message.Frame) error
}

// Fanout delivers one just-appended publication to every subscriber of
// topicID:
//
//   - online subscribers receive a DATA frame and their cursor advances
//     to sequence;
//   - offline subscribers with SF enabled are left untouched, so that
//     reconnect catch-up can replay everything past their cursor;
//   - offline subscribers without SF have their cursor advanced to
//     sequence without delivery (drop semantics).
//
// Handles that fail a live send are returned so the caller can run its
// own close-and-disconnect path without Fanout itself reaching into the
// connection state machine.
func Fanout(reg *registry.Registry, sender Sender, topicID uint32, rendered string, sequence int64) []net.Conn {
	var failed []net.Conn

	for _, sub := range reg.SubscribersOf(topicID) {
		subscription, ok := sub.Subscriptions[topicID]
		if !ok {
			continue
		}

		switch {
		case sub.Status == registry.Online:
			if err := sender.Send(sub.Handle, message.Data{Rendered: rendered}); err != nil {
				failed = append(failed, sub.Handle)
				continue
			}
			subscription.LastDeliveredSequence = sequence

		case subscription.SF:
			// Leave the cursor alone; reconnect catch-up replays
			// (cursor, last_sequence] in full.

		default:
			subscription.LastDeliveredSequence = sequence
		}
	}

	return failed
}
