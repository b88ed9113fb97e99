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

package registry

import "net"

// Status is a Subscriber's connectivity.
type Status int

const (
	Offline Status = iota
	Online
)

// Subscription is per-(subscriber, topic) state: whether store-and-
// forward is enabled, and the cursor naming the last sequence
// delivered.
type Subscription struct {
	SF                    bool
	LastDeliveredSequence int64
}

// Subscriber is the registry's durable record for one stream client.
// Identity is the durable key; Handle, Addr and Status are replaced on
// every reconnect while Subscriptions survive across them.
type Subscriber struct {
	Identity      string
	Handle        net.Conn
	Addr          string
	Status        Status
	Subscriptions map[uint32]*Subscription
}

func newSubscriber(identity string) *Subscriber {
	return &Subscriber{
		Identity:      identity,
		Status:        Offline,
		Subscriptions: make(map[uint32]*Subscription),
	}
}

func (s *Subscriber) subscription(topicID uint32) (*Subscription, bool) {
	sub, ok := s.Subscriptions[topicID]
	return sub, ok
}
