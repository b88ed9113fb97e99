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

package topiclog

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/pktrelay/broker/fsutil"
)

// Manager owns the per-topic Logs, keyed by the id registry.Registry
// assigned: one coordinator wrapping a map of per-key records. A
// topic's backing file is always local to this process; concurrent
// broker instances over the same data directory are undefined
// behaviour.
type Manager struct {
	sandbox *fsutil.Sandbox
	window  int
	drain   int

	logs map[uint32]*Log
}

// NewManager returns a Manager whose topic files live under sandbox,
// using window/drain as the default bound for every topic it creates.
func NewManager(sandbox *fsutil.Sandbox, window, drain int) *Manager {
	return &Manager{
		sandbox: sandbox,
		window:  window,
		drain:   drain,
		logs:    make(map[uint32]*Log),
	}
}

// Get returns the Log for topicID, creating it (and its backing file,
// named after topicName) on first use. Topic records are created on
// first subscribe or first publish referencing the topic name.
func (m *Manager) Get(topicID uint32, topicName string) (*Log, error) {
	if l, ok := m.logs[topicID]; ok {
		return l, nil
	}

	l, err := New(m.sandbox, topicName, m.window, m.drain)
	if err != nil {
		return nil, fmt.Errorf("topiclog/Manager.Get: %w", err)
	}
	m.logs[topicID] = l
	return l, nil
}

// FlushAll flushes every Log the Manager has created, called once at
// broker shutdown. One topic's flush failing never stops the others
// from draining: every error is collected and returned together.
func (m *Manager) FlushAll() error {
	var err error
	for id, l := range m.logs {
		if ferr := l.Flush(); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("topiclog/Manager.FlushAll: topic %d: %w", id, ferr))
		}
	}
	return err
}
