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

package broker

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/pktrelay/broker/message"
	"github.com/pktrelay/broker/registry"
	"github.com/pktrelay/broker/router"
	"github.com/pktrelay/broker/topiclog"
)

// maxDatagramSize is large enough for any of the four scalar encodings;
// STRING is the largest at up to 1500 bytes.
const maxDatagramSize = message.TopicNameSize + 1 + message.MaxStringPayload

// datagramLoop reads publisher packets off pc until it errors. A read
// error (including the one Close causes at shutdown) is logged and ends
// the loop, and with it publication; the process itself is not stopped.
func (s *Server) datagramLoop(pc net.PacketConn) {
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			s.log.Info("datagram listener closed", zap.Error(err))
			return
		}

		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		s.handleDatagram(buf[:n], udpAddr)
	}
}

// handleDatagram implements the datagram path: decode -> append ->
// route. A decode failure is dropped silently. A failed drain during
// the append is logged but never blocks the in-memory append or the
// fanout that follows it; if the topic's log cannot be opened at all,
// the failure is logged and the publication is dropped.
func (s *Server) handleDatagram(buf []byte, peer *net.UDPAddr) {
	dg, err := message.DecodeDatagram(buf)
	if err != nil {
		s.log.Debug("dropping malformed datagram", zap.Error(err))
		return
	}

	rendered := dg.Render(peer.String())

	var failed []net.Conn
	s.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		topicID := reg.AddTopic(dg.Topic)

		tlog, err := logs.Get(topicID, dg.Topic)
		if err != nil {
			s.log.Error("topic log unavailable", zap.String("topic", dg.Topic), zap.Error(err))
			return
		}

		seq, err := tlog.Append(rendered)
		if err != nil {
			s.log.Warn("topic log drain failed, message still in window",
				zap.String("topic", dg.Topic), zap.Error(err))
		}

		failed = router.Fanout(reg, connSender{}, topicID, rendered, seq)
	})

	for _, handle := range failed {
		s.disconnectHandle(handle)
	}
}

// connSender adapts net.Conn to router.Sender. Sends carry a short
// write deadline rather than blocking indefinitely: an unresponsive
// subscriber gets dropped rather than allowed to stall the one dispatch
// goroutine every other subscriber's fanout depends on.
type connSender struct{}

func (connSender) Send(handle net.Conn, frame message.Frame) error {
	if err := handle.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := handle.Write(frame.Encode())
	// Clear the deadline so it only bounds this send, not later replies
	// the connection writes on the same handle.
	handle.SetWriteDeadline(time.Time{})
	return err
}
