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
	"github.com/pktrelay/broker/registry"
	"github.com/pktrelay/broker/topiclog"
)

// job is a closure that touches Registry/TopicLog state. Every job runs
// on dispatchLoop's single goroutine, the sole mutator of that state —
// the accept, read, datagram and operator goroutines only ever reach
// the Registry and TopicLog through dispatchSync.
type job func(reg *registry.Registry, logs *topiclog.Manager)

// dispatchLoop drains jobs one at a time for as long as the process
// runs. It is never told to stop: the goroutine is abandoned at process
// exit along with every other I/O goroutine, rather than torn down
// through a close that would race pending dispatchSync callers.
func (s *Server) dispatchLoop() {
	for j := range s.jobs {
		j(s.reg, s.logs)
	}
}

// dispatchSync submits j to dispatchLoop and blocks until it has run,
// so callers that need catch-up data or a fanout result back before
// their next step (reconnect catch-up, in particular) see it
// synchronously without holding a lock of their own.
func (s *Server) dispatchSync(j job) {
	done := make(chan struct{})
	s.jobs <- func(reg *registry.Registry, logs *topiclog.Manager) {
		j(reg, logs)
		close(done)
	}
	<-done
}
