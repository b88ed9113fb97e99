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
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDatagram(t *testing.T, topic string, tag DatagramTag, payload []byte) []byte {
	t.Helper()
	buf := make([]byte, TopicNameSize+1+len(payload))
	copy(buf, topic)
	buf[TopicNameSize] = byte(tag)
	copy(buf[TopicNameSize+1:], payload)
	return buf
}

func TestDecodeDatagram_ScalarEncodings(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		tag     DatagramTag
		payload []byte
		want    string
	}{
		{
			name:    "INT negative",
			topic:   "temp",
			tag:     TagInt,
			payload: []byte{1, 0x00, 0x00, 0x00, 0x2A},
			want:    "temp - INT - -42",
		},
		{
			name:    "SHORT_REAL",
			topic:   "p",
			tag:     TagShortReal,
			payload: []byte{0x07, 0xD1},
			want:    "p - SHORT_REAL - 20.01",
		},
		{
			name:    "FLOAT",
			topic:   "v",
			tag:     TagFloat,
			payload: []byte{0, 0x00, 0x00, 0x04, 0xD2, 2},
			want:    "v - FLOAT - 12.34",
		},
		{
			name:    "STRING",
			topic:   "log",
			tag:     TagString,
			payload: append([]byte("hello"), 0),
			want:    "log - STRING - hello",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := DecodeDatagram(buildDatagram(t, tc.topic, tc.tag, tc.payload))
			require.NoError(t, err)
			require.Equal(t, tc.want, d.Topic+" - "+d.Value.TypeName()+" - "+d.Value.render())
		})
	}
}

func TestDecodeDatagram_RenderIncludesPeer(t *testing.T) {
	d, err := DecodeDatagram(buildDatagram(t, "temp", TagInt, []byte{1, 0, 0, 0, 0x2A}))
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:5000 - temp - INT - -42", d.Render("10.0.0.1:5000"))
}

func TestDecodeDatagram_UnknownTagDropped(t *testing.T) {
	_, err := DecodeDatagram(buildDatagram(t, "x", DatagramTag(99), nil))
	require.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecodeDatagram_ShortPayloadRejected(t *testing.T) {
	_, err := DecodeDatagram(buildDatagram(t, "x", TagInt, []byte{1, 0, 0}))
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodeDatagram_TooShortForHeader(t *testing.T) {
	_, err := DecodeDatagram(make([]byte, TopicNameSize))
	require.ErrorIs(t, err, ErrShortPayload)
}

func TestEncodeDecodeDatagram_RoundTrip(t *testing.T) {
	raw, err := EncodeDatagram("p", ShortReal{Hundredths: 2001})
	require.NoError(t, err)

	d, err := DecodeDatagram(raw)
	require.NoError(t, err)
	require.Equal(t, "p", d.Topic)
	require.Equal(t, "20.01", d.Value.render())
}
