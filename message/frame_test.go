// Copyright (c) 2014 Dataence, LLC. All rights reserved.
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

package message

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, f Frame) Frame {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(f.Encode()))
	decoded, err := DecodeFrame(r)
	require.NoError(t, err)
	return decoded
}

func TestFrame_RoundTrip(t *testing.T) {
	require.Equal(t, Connect{Identity: "subA"}, roundTrip(t, Connect{Identity: "subA"}))
	require.Equal(t, Subscribe{Topic: "temp", SF: true}, roundTrip(t, Subscribe{Topic: "temp", SF: true}))
	require.Equal(t, Unsubscribe{TopicID: 7}, roundTrip(t, Unsubscribe{TopicID: 7}))
	require.Equal(t, TopicID{Topic: "temp", ID: 7}, roundTrip(t, TopicID{Topic: "temp", ID: 7}))
	require.Equal(t, ConfirmUnsubscribe{TopicID: 7}, roundTrip(t, ConfirmUnsubscribe{TopicID: 7}))
	require.Equal(t, Data{Rendered: "10.0.0.1:5000 - temp - INT - -42"}, roundTrip(t, Data{Rendered: "10.0.0.1:5000 - temp - INT - -42"}))
	require.Equal(t, ConnectDup{}, roundTrip(t, ConnectDup{}))
}

func TestDecodeFrame_UnknownTag(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0xFF}))
	_, err := DecodeFrame(r)
	require.ErrorIs(t, err, ErrUnknownFrame)
}

func TestDecodeFrame_ToleratesTrailingGarbage(t *testing.T) {
	encoded := Unsubscribe{TopicID: 3}.Encode()
	encoded = append(encoded, 0xDE, 0xAD, 0xBE, 0xEF)
	r := bufio.NewReader(bytes.NewReader(encoded))
	f, err := DecodeFrame(r)
	require.NoError(t, err)
	require.Equal(t, Unsubscribe{TopicID: 3}, f)
}
