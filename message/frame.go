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
	"encoding/binary"
	"io"
)

// Frame is a stream message exchanged between broker and subscriber.
// Every variant knows its own tag and how to serialize itself; decoding
// lives in DecodeFrame, which reads the tag byte once and dispatches to
// the variant's decoder.
type Frame interface {
	Tag() FrameTag
	Encode() []byte
}

// DecodeFrame reads one frame from r, tolerating trailing garbage beyond
// the declared payload.
func DecodeFrame(r *bufio.Reader) (Frame, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch FrameTag(tagByte) {
	case FrameConnect:
		return decodeConnect(r)
	case FrameSubscribe:
		return decodeSubscribe(r)
	case FrameUnsubscribe:
		return decodeUnsubscribe(r)
	case FrameTopicID:
		return decodeTopicID(r)
	case FrameConfirmU:
		return decodeConfirmU(r)
	case FrameData:
		return decodeData(r)
	case FrameConnectDup:
		return ConnectDup{}, nil
	default:
		return nil, ErrUnknownFrame
	}
}

func readFull(r *bufio.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readUint32(r *bufio.Reader) (uint32, error) {
	buf, err := readFull(r, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}
