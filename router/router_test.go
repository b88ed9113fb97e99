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

package router

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktrelay/broker/message"
	"github.com/pktrelay/broker/registry"
)

type recordingSender struct {
	sent map[net.Conn][]message.Frame
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[net.Conn][]message.Frame)}
}

func (s *recordingSender) Send(handle net.Conn, frame message.Frame) error {
	s.sent[handle] = append(s.sent[handle], frame)
	return nil
}

func TestFanout_OnlineSubscriberReceivesAndCursorAdvances(t *testing.T) {
	reg := registry.New()
	h, _ := net.Pipe()
	defer h.Close()

	topicID := reg.AddTopic("temp")
	reg.AddUser("sub-a", h, "addr")
	reg.Subscribe("sub-a", topicID, false, -1)

	sender := newRecordingSender()
	failed := Fanout(reg, sender, topicID, "rendered-1", 0)

	require.Empty(t, failed)
	require.Len(t, sender.sent[h], 1)
	sub, _ := reg.GetUserByIdentity("sub-a")
	require.EqualValues(t, 0, sub.Subscriptions[topicID].LastDeliveredSequence)
}

func TestFanout_OfflineSFSubscriberCursorUnchanged(t *testing.T) {
	reg := registry.New()
	h, _ := net.Pipe()
	defer h.Close()

	topicID := reg.AddTopic("q")
	reg.AddUser("sub-a", h, "addr")
	reg.Subscribe("sub-a", topicID, true, 2)
	reg.DisconnectByHandle(h)

	sender := newRecordingSender()
	Fanout(reg, sender, topicID, "rendered", 5)

	require.Empty(t, sender.sent)
	sub, _ := reg.GetUserByIdentity("sub-a")
	require.EqualValues(t, 2, sub.Subscriptions[topicID].LastDeliveredSequence)
}

func TestFanout_OfflineNonSFSubscriberCursorAdvancesWithoutDelivery(t *testing.T) {
	reg := registry.New()
	h, _ := net.Pipe()
	defer h.Close()

	topicID := reg.AddTopic("q")
	reg.AddUser("sub-a", h, "addr")
	reg.Subscribe("sub-a", topicID, false, -1)
	reg.DisconnectByHandle(h)

	sender := newRecordingSender()
	Fanout(reg, sender, topicID, "rendered", 5)

	require.Empty(t, sender.sent)
	sub, _ := reg.GetUserByIdentity("sub-a")
	require.EqualValues(t, 5, sub.Subscriptions[topicID].LastDeliveredSequence)
}
