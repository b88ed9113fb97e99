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

import "github.com/pktrelay/broker/topiclog"

// DefaultDataDir is where per-topic backing files live when -data isn't
// given on the command line.
const DefaultDataDir = "./data"

// Options configures a Server. A Window of zero takes topiclog's own
// default; a Drain of zero takes a quarter of the effective window (at
// least 1). Both are policy knobs, not invariants.
type Options struct {
	DataDir string
	Window  int
	Drain   int
}

func (o Options) dataDir() string {
	if o.DataDir == "" {
		return DefaultDataDir
	}
	return o.DataDir
}

func (o Options) window() int {
	if o.Window <= 0 {
		return topiclog.DefaultWindow
	}
	return o.Window
}

func (o Options) drain() int {
	if o.Drain <= 0 {
		if d := o.window() / 4; d > 0 {
			return d
		}
		return 1
	}
	return o.Drain
}
