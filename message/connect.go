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

// Connect is sent subscriber -> broker as the first frame on a new
// stream handle, carrying the durable identity.
type Connect struct {
	Identity string
}

func (Connect) Tag() FrameTag { return FrameConnect }

func (c Connect) Encode() []byte {
	out := make([]byte, 1+IdentitySize)
	out[0] = byte(FrameConnect)
	copy(out[1:], encodeFixedString(c.Identity, IdentitySize))
	return out
}

func decodeConnect(r *bufio.Reader) (Frame, error) {
	buf, err := readFull(r, IdentitySize)
	if err != nil {
		return nil, err
	}
	return Connect{Identity: decodeFixedString(buf)}, nil
}

// ConnectDup is sent broker -> subscriber in place of accepting a
// CONNECT for an identity that is already online. It carries no
// payload.
type ConnectDup struct{}

func (ConnectDup) Tag() FrameTag    { return FrameConnectDup }
func (ConnectDup) Encode() []byte   { return []byte{byte(FrameConnectDup)} }
