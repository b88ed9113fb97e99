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

// Package message implements the two on-wire codecs the broker speaks:
// the fixed-layout UDP datagram publishers send, and the tagged stream
// frames exchanged with subscribers over TCP.
package message

import "errors"

// DatagramTag identifies the scalar encoding carried by a publisher's
// datagram payload.
type DatagramTag byte

const (
	TagInt       DatagramTag = 0
	TagShortReal DatagramTag = 1
	TagFloat     DatagramTag = 2
	TagString    DatagramTag = 3
)

// FrameTag identifies a stream message exchanged between broker and
// subscriber.
type FrameTag byte

const (
	FrameConnect      FrameTag = 0
	FrameSubscribe    FrameTag = 1
	FrameUnsubscribe  FrameTag = 2
	FrameTopicID      FrameTag = 3
	FrameConfirmU     FrameTag = 4
	FrameData         FrameTag = 5
	FrameConnectDup   FrameTag = 6
)

const (
	// TopicNameSize is the fixed, null-padded width of a topic name on
	// the wire.
	TopicNameSize = 50

	// IdentitySize is the fixed, null-padded width of a CONNECT identity
	// field on the wire, matching TopicNameSize; the shorter content
	// constraint on identity values is enforced by the subscriber CLI,
	// not the wire layout.
	IdentitySize = 50

	// MaxStringPayload is the largest payload a STRING datagram may
	// carry.
	MaxStringPayload = 1500

	// MaxDataPayload bounds a rendered DATA frame.
	MaxDataPayload = 1596
)

var (
	ErrUnknownTag     = errors.New("message: unknown datagram tag")
	ErrShortPayload   = errors.New("message: payload shorter than declared")
	ErrNameTooLong    = errors.New("message: name exceeds wire field width")
	ErrUnknownFrame   = errors.New("message: unknown frame tag")
)
