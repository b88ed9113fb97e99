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

// TopicID is sent broker -> subscriber so the client can resolve a
// topic name to the broker's numeric id.
type TopicID struct {
	Topic string
	ID    uint32
}

func (TopicID) Tag() FrameTag { return FrameTopicID }

func (t TopicID) Encode() []byte {
	out := make([]byte, 1+TopicNameSize+4)
	out[0] = byte(FrameTopicID)
	copy(out[1:1+TopicNameSize], encodeFixedString(t.Topic, TopicNameSize))
	putUint32(out[1+TopicNameSize:], t.ID)
	return out
}

func decodeTopicID(r *bufio.Reader) (Frame, error) {
	buf, err := readFull(r, TopicNameSize+4)
	if err != nil {
		return nil, err
	}
	return TopicID{
		Topic: decodeFixedString(buf[:TopicNameSize]),
		ID:    beUint32(buf[TopicNameSize:]),
	}, nil
}

// ConfirmUnsubscribe is sent broker -> subscriber to acknowledge an
// UNSUBSCRIBE.
type ConfirmUnsubscribe struct {
	TopicID uint32
}

func (ConfirmUnsubscribe) Tag() FrameTag { return FrameConfirmU }

func (c ConfirmUnsubscribe) Encode() []byte {
	out := make([]byte, 5)
	out[0] = byte(FrameConfirmU)
	putUint32(out[1:], c.TopicID)
	return out
}

func decodeConfirmU(r *bufio.Reader) (Frame, error) {
	id, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	return ConfirmUnsubscribe{TopicID: id}, nil
}
