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

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddTopic_BijectiveAndDense(t *testing.T) {
	r := New()

	id1 := r.AddTopic("temp")
	id2 := r.AddTopic("pressure")
	id3 := r.AddTopic("temp") // re-add, same name

	require.Equal(t, uint32(0), id1)
	require.Equal(t, uint32(1), id2)
	require.Equal(t, id1, id3, "re-adding an existing topic must not renumber it")

	name, ok := r.TopicName(id2)
	require.True(t, ok)
	require.Equal(t, "pressure", name)

	gotID, ok := r.TopicID("temp")
	require.True(t, ok)
	require.Equal(t, id1, gotID)
}

func TestReserveAndConsumeAddress_SingleShot(t *testing.T) {
	r := New()
	handle, _ := net.Pipe()
	defer handle.Close()

	r.ReserveAddress(handle, "10.0.0.1:9000")

	addr, ok := r.ConsumeReservedAddress(handle)
	require.True(t, ok)
	require.Equal(t, "10.0.0.1:9000", addr)

	_, ok = r.ConsumeReservedAddress(handle)
	require.False(t, ok, "consuming a reserved address twice must miss the second time")
}

func TestDisconnectByHandle_PreservesSubscriptions(t *testing.T) {
	r := New()
	handle, _ := net.Pipe()
	defer handle.Close()

	topicID := r.AddTopic("q")
	r.AddUser("sub-a", handle, "1.2.3.4:1")
	r.Subscribe("sub-a", topicID, true, 4)

	r.DisconnectByHandle(handle)

	s, ok := r.GetUserByIdentity("sub-a")
	require.True(t, ok)
	require.Equal(t, Offline, s.Status)
	require.Nil(t, s.Handle)
	require.Empty(t, s.Addr)

	sub, ok := s.subscription(topicID)
	require.True(t, ok)
	require.True(t, sub.SF)
	require.EqualValues(t, 4, sub.LastDeliveredSequence)
}

func TestRebind_RestoresOnlineStatusOnSameIdentity(t *testing.T) {
	r := New()
	h1, _ := net.Pipe()
	h2, _ := net.Pipe()
	defer h1.Close()
	defer h2.Close()

	r.AddUser("sub-a", h1, "1.2.3.4:1")
	r.DisconnectByHandle(h1)

	s := r.Rebind("sub-a", h2, "1.2.3.4:2")
	require.Equal(t, Online, s.Status)
	require.Equal(t, h2, s.Handle)

	byHandle, ok := r.GetUserByHandle(h2)
	require.True(t, ok)
	require.Equal(t, "sub-a", byHandle.Identity)
}

func TestSubscribe_ReSubscribeIsNoOp(t *testing.T) {
	r := New()
	h, _ := net.Pipe()
	defer h.Close()

	topicID := r.AddTopic("q")
	r.AddUser("sub-a", h, "1.2.3.4:1")
	r.Subscribe("sub-a", topicID, true, 4)

	s, ok := r.GetUserByIdentity("sub-a")
	require.True(t, ok)
	sub, ok := s.subscription(topicID)
	require.True(t, ok)
	require.True(t, sub.SF)
	require.EqualValues(t, 4, sub.LastDeliveredSequence)

	r.Subscribe("sub-a", topicID, false, 99)

	sub, ok = s.subscription(topicID)
	require.True(t, ok)
	require.True(t, sub.SF, "re-subscribe must not change the stored SF flag")
	require.EqualValues(t, 4, sub.LastDeliveredSequence, "re-subscribe must not move the cursor")
}

func TestSubscribersOf_FiltersByTopic(t *testing.T) {
	r := New()
	h1, _ := net.Pipe()
	h2, _ := net.Pipe()
	defer h1.Close()
	defer h2.Close()

	tempID := r.AddTopic("temp")
	r.AddTopic("pressure")

	r.AddUser("a", h1, "addr-a")
	r.AddUser("b", h2, "addr-b")
	r.Subscribe("a", tempID, false, 0)

	subs := r.SubscribersOf(tempID)
	require.Len(t, subs, 1)
	require.Equal(t, "a", subs[0].Identity)
}
