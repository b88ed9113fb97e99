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

import "bufio"

// Subscribe is sent subscriber -> broker to register interest in a
// topic, optionally with store-and-forward enabled.
type Subscribe struct {
	Topic string
	SF    bool
}

func (Subscribe) Tag() FrameTag { return FrameSubscribe }

func (s Subscribe) Encode() []byte {
	out := make([]byte, 1+TopicNameSize+1)
	out[0] = byte(FrameSubscribe)
	copy(out[1:1+TopicNameSize], encodeFixedString(s.Topic, TopicNameSize))
	if s.SF {
		out[1+TopicNameSize] = 1
	}
	return out
}

func decodeSubscribe(r *bufio.Reader) (Frame, error) {
	buf, err := readFull(r, TopicNameSize+1)
	if err != nil {
		return nil, err
	}
	return Subscribe{
		Topic: decodeFixedString(buf[:TopicNameSize]),
		SF:    buf[TopicNameSize] != 0,
	}, nil
}

// Unsubscribe is sent subscriber -> broker, naming the topic by the id
// the subscriber previously learned via TopicID.
type Unsubscribe struct {
	TopicID uint32
}

func (Unsubscribe) Tag() FrameTag { return FrameUnsubscribe }

func (u Unsubscribe) Encode() []byte {
	out := make([]byte, 5)
	out[0] = byte(FrameUnsubscribe)
	putUint32(out[1:], u.TopicID)
	return out
}

func decodeUnsubscribe(r *bufio.Reader) (Frame, error) {
	id, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return Unsubscribe{TopicID: id}, nil
}
