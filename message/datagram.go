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
	"bytes"
	"encoding/binary"
	"fmt"
)

// Value is the sum type over the four scalar encodings a publisher may
// send: each encoding is its own type, and Tag reports which one it is.
type Value interface {
	Tag() DatagramTag
	TypeName() string
	render() string
}

// Int is a signed 32-bit magnitude encoded as a sign byte followed by a
// 4-byte unsigned big-endian magnitude.
type Int struct {
	Negative  bool
	Magnitude uint32
}

func (Int) Tag() DatagramTag    { return TagInt }
func (Int) TypeName() string    { return "INT" }
func (v Int) render() string {
	if v.Negative {
		return fmt.Sprintf("-%d", v.Magnitude)
	}
	return fmt.Sprintf("%d", v.Magnitude)
}

// ShortReal is an unsigned fixed-point value in hundredths, encoded as a
// 2-byte unsigned big-endian integer.
type ShortReal struct {
	Hundredths uint16
}

func (ShortReal) Tag() DatagramTag { return TagShortReal }
func (ShortReal) TypeName() string { return "SHORT_REAL" }
func (v ShortReal) render() string {
	return fmt.Sprintf("%d.%02d", v.Hundredths/100, v.Hundredths%100)
}

// Float is a signed decimal with an explicit fractional exponent: sign
// byte, 4-byte unsigned big-endian magnitude, 1-byte exponent E. The
// rendered value is magnitude/10^E with exactly E fractional digits.
type Float struct {
	Negative  bool
	Magnitude uint32
	Exponent  uint8
}

func (Float) Tag() DatagramTag { return TagFloat }
func (Float) TypeName() string { return "FLOAT" }
func (v Float) render() string {
	sign := ""
	if v.Negative {
		sign = "-"
	}
	if v.Exponent == 0 {
		return fmt.Sprintf("%s%d", sign, v.Magnitude)
	}
	s := fmt.Sprintf("%0*d", int(v.Exponent)+1, v.Magnitude)
	split := len(s) - int(v.Exponent)
	return fmt.Sprintf("%s%s.%s", sign, s[:split], s[split:])
}

// String is a null-terminated payload of up to MaxStringPayload bytes.
type String struct {
	Text string
}

func (String) Tag() DatagramTag { return TagString }
func (String) TypeName() string { return "STRING" }
func (v String) render() string { return v.Text }

// Datagram is a decoded publisher packet: a topic name and the typed
// value carried in its payload.
type Datagram struct {
	Topic string
	Value Value
}

// Render produces the canonical text for a publication:
// "<ip>:<port> - <topic> - <TYPENAME> - <value>".
func (d *Datagram) Render(peer string) string {
	return fmt.Sprintf("%s - %s - %s - %s", peer, d.Topic, d.Value.TypeName(), d.Value.render())
}

// DecodeDatagram parses a raw UDP payload into a Datagram. Unknown tags
// and short reads are reported as errors; callers at the event-loop
// boundary are expected to drop the datagram silently on any error.
func DecodeDatagram(buf []byte) (*Datagram, error) {
	if len(buf) < TopicNameSize+1 {
		return nil, ErrShortPayload
	}

	topic := decodeFixedString(buf[:TopicNameSize])
	tag := DatagramTag(buf[TopicNameSize])
	payload := buf[TopicNameSize+1:]

	value, err := decodeValue(tag, payload)
	if err != nil {
		return nil, err
	}

	return &Datagram{Topic: topic, Value: value}, nil
}

func decodeValue(tag DatagramTag, payload []byte) (Value, error) {
	switch tag {
	case TagInt:
		if len(payload) < 5 {
			return nil, ErrShortPayload
		}
		return Int{
			Negative:  payload[0] != 0,
			Magnitude: binary.BigEndian.Uint32(payload[1:5]),
		}, nil

	case TagShortReal:
		if len(payload) < 2 {
			return nil, ErrShortPayload
		}
		// Canonical decode is ntoh16 of the 2-byte field as unsigned;
		// the original source's inconsistent byte-swap in one variant
		// is not reproduced here (Open Question c).
		return ShortReal{Hundredths: binary.BigEndian.Uint16(payload[:2])}, nil

	case TagFloat:
		if len(payload) < 6 {
			return nil, ErrShortPayload
		}
		return Float{
			Negative:  payload[0] != 0,
			Magnitude: binary.BigEndian.Uint32(payload[1:5]),
			Exponent:  payload[5],
		}, nil

	case TagString:
		if len(payload) == 0 {
			return nil, ErrShortPayload
		}
		n := len(payload)
		if n > MaxStringPayload {
			n = MaxStringPayload
		}
		return String{Text: decodeFixedString(payload[:n])}, nil

	default:
		return nil, ErrUnknownTag
	}
}

// EncodeDatagram renders a Datagram back into wire bytes. It exists
// primarily so tests and the (external) publisher reference material
// can construct fixtures without hand-building byte slices.
func EncodeDatagram(topic string, v Value) ([]byte, error) {
	if len(topic) > TopicNameSize {
		return nil, ErrNameTooLong
	}

	var buf bytes.Buffer
	buf.Write(encodeFixedString(topic, TopicNameSize))
	buf.WriteByte(byte(v.Tag()))

	switch val := v.(type) {
	case Int:
		sign := byte(0)
		if val.Negative {
			sign = 1
		}
		buf.WriteByte(sign)
		var mag [4]byte
		binary.BigEndian.PutUint32(mag[:], val.Magnitude)
		buf.Write(mag[:])

	case ShortReal:
		var h [2]byte
		binary.BigEndian.PutUint16(h[:], val.Hundredths)
		buf.Write(h[:])

	case Float:
		sign := byte(0)
		if val.Negative {
			sign = 1
		}
		buf.WriteByte(sign)
		var mag [4]byte
		binary.BigEndian.PutUint32(mag[:], val.Magnitude)
		buf.Write(mag[:])
		buf.WriteByte(val.Exponent)

	case String:
		if len(val.Text) > MaxStringPayload-1 {
			return nil, ErrNameTooLong
		}
		buf.Write(encodeFixedString(val.Text, len(val.Text)+1))

	default:
		return nil, ErrUnknownTag
	}

	return buf.Bytes(), nil
}

// decodeFixedString trims a null-padded field at its first NUL byte.
func decodeFixedString(buf []byte) string {
	if idx := bytes.IndexByte(buf, 0); idx >= 0 {
		return string(buf[:idx])
	}
	return string(buf)
}

// encodeFixedString null-pads (or truncates) s into a field of width n.
func encodeFixedString(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}
