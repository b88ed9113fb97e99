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

// Data carries one rendered publication to a subscriber, whether
// delivered live or replayed during reconnect catch-up. It is
// length-prefixed on the wire (2-byte big-endian length, then the
// rendered text) rather than null-terminated, since rendered text may
// legitimately be long and must not be confused with a fixed field.
type Data struct {
	Rendered string
}

func (Data) Tag() FrameTag { return FrameData }

func (d Data) Encode() []byte {
	body := []byte(d.Rendered)
	if len(body) > MaxDataPayload-2 {
		body = body[:MaxDataPayload-2]
	}
	out := make([]byte, 1+2+len(body))
	out[0] = byte(FrameData)
	binary.BigEndian.PutUint16(out[1:3], uint16(len(body)))
	copy(out[3:], body)
	return out
}

func decodeData(r *bufio.Reader) (Frame, error) {
	lbuf := make([]byte, 2)
	if _, err := io.ReadFull(r, lbuf); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lbuf)
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return Data{Rendered: string(body)}, nil
}
