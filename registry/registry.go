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

// Registry owns every Topic and Subscriber record in the broker. It is
// deliberately not goroutine-safe: package broker's single dispatch
// goroutine is the only caller, which is what lets every mutation here
// run without a lock.
type Registry struct {
	topicsByID   []*Topic
	topicsByName map[string]*Topic

	subscribersByIdentity map[string]*Subscriber
	handleToIdentity      map[net.Conn]string

	pending map[net.Conn]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		topicsByName:          make(map[string]*Topic),
		subscribersByIdentity: make(map[string]*Subscriber),
		handleToIdentity:      make(map[net.Conn]string),
		pending:               make(map[net.Conn]string),
	}
}

// AddTopic returns the id for name, creating the topic and assigning it
// the next monotonic id if it doesn't already exist. Re-adding an
// existing name returns its existing id without renumbering.
func (r *Registry) AddTopic(name string) uint32 {
	if t, ok := r.topicsByName[name]; ok {
		return t.ID
	}

	t := &Topic{ID: uint32(len(r.topicsByID)), Name: name}
	r.topicsByID = append(r.topicsByID, t)
	r.topicsByName[name] = t
	return t.ID
}

// TopicName resolves an id to its name.
func (r *Registry) TopicName(id uint32) (string, bool) {
	if int(id) >= len(r.topicsByID) {
		return "", false
	}
	return r.topicsByID[id].Name, true
}

// TopicID resolves a name to its id.
func (r *Registry) TopicID(name string) (uint32, bool) {
	t, ok := r.topicsByName[name]
	if !ok {
		return 0, false
	}
	return t.ID, true
}

// Topics returns every known topic, ordered by id.
func (r *Registry) Topics() []*Topic {
	out := make([]*Topic, len(r.topicsByID))
	copy(out, r.topicsByID)
	return out
}

// UserExists reports whether a subscriber with identity has ever
// connected.
func (r *Registry) UserExists(identity string) bool {
	_, ok := r.subscribersByIdentity[identity]
	return ok
}

// AddUser creates and binds a new online Subscriber for identity on
// handle/addr. Callers must check UserExists first; AddUser does not
// special-case an existing identity.
func (r *Registry) AddUser(identity string, handle net.Conn, addr string) *Subscriber {
	s := newSubscriber(identity)
	s.Handle = handle
	s.Addr = addr
	s.Status = Online
	r.subscribersByIdentity[identity] = s
	r.handleToIdentity[handle] = identity
	return s
}

// Rebind marks an existing (offline) subscriber online on a new handle.
func (r *Registry) Rebind(identity string, handle net.Conn, addr string) *Subscriber {
	s := r.subscribersByIdentity[identity]
	s.Handle = handle
	s.Addr = addr
	s.Status = Online
	r.handleToIdentity[handle] = identity
	return s
}

// GetUserByIdentity looks up a subscriber by its durable identity.
func (r *Registry) GetUserByIdentity(identity string) (*Subscriber, bool) {
	s, ok := r.subscribersByIdentity[identity]
	return s, ok
}

// GetUserByHandle looks up a subscriber by its current stream handle.
// The handle is only a transient index; the identity is the durable
// key.
func (r *Registry) GetUserByHandle(handle net.Conn) (*Subscriber, bool) {
	identity, ok := r.handleToIdentity[handle]
	if !ok {
		return nil, false
	}
	return r.GetUserByIdentity(identity)
}

// OnlineSubscribers returns every currently-online subscriber.
func (r *Registry) OnlineSubscribers() []*Subscriber {
	var out []*Subscriber
	for _, s := range r.subscribersByIdentity {
		if s.Status == Online {
			out = append(out, s)
		}
	}
	return out
}

// SubscribersOf returns every subscriber with a subscription on
// topicID, online or offline.
func (r *Registry) SubscribersOf(topicID uint32) []*Subscriber {
	var out []*Subscriber
	for _, s := range r.subscribersByIdentity {
		if _, ok := s.subscription(topicID); ok {
			out = append(out, s)
		}
	}
	return out
}

// Subscribe records that identity is interested in topicID, with the
// given SF flag and an initial cursor of lastSequence (the log's
// last_sequence at subscribe time). This operation must not change
// existing values: re-subscribing to a topic identity is already
// subscribed to is a no-op, leaving both the stored SF flag and the
// cursor exactly as they were.
func (r *Registry) Subscribe(identity string, topicID uint32, sf bool, lastSequence int64) {
	s := r.subscribersByIdentity[identity]
	if _, ok := s.subscription(topicID); ok {
		return
	}
	s.Subscriptions[topicID] = &Subscription{SF: sf, LastDeliveredSequence: lastSequence}
}

// Unsubscribe drops identity's subscription to topicID, if any.
func (r *Registry) Unsubscribe(identity string, topicID uint32) {
	delete(r.subscribersByIdentity[identity].Subscriptions, topicID)
}

// ReserveAddress records the peer address for a freshly-accepted handle,
// before its identity is known.
func (r *Registry) ReserveAddress(handle net.Conn, addr string) {
	r.pending[handle] = addr
}

// ConsumeReservedAddress returns and removes the address reserved for
// handle. It is single-shot: a second call for the same handle misses.
func (r *Registry) ConsumeReservedAddress(handle net.Conn) (string, bool) {
	addr, ok := r.pending[handle]
	delete(r.pending, handle)
	return addr, ok
}

// DisconnectByHandle clears a subscriber's handle/address and marks it
// offline, retaining its subscriptions. If handle was only a reserved
// (never-identified) address, it is simply forgotten.
func (r *Registry) DisconnectByHandle(handle net.Conn) {
	identity, ok := r.handleToIdentity[handle]
	if !ok {
		delete(r.pending, handle)
		return
	}

	delete(r.handleToIdentity, handle)
	s := r.subscribersByIdentity[identity]
	if s.Handle == handle {
		s.Handle = nil
		s.Addr = ""
		s.Status = Offline
	}
}
