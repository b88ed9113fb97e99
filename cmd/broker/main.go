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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/pktrelay/broker/broker"
	"github.com/pktrelay/broker/commons"
)

var (
	dataDir = flag.String("data", broker.DefaultDataDir, "backing directory for per-topic log files")
	window  = flag.Int("window", 0, "TopicLog in-memory window bound (0 takes the package default)")
	drain   = flag.Int("drain", 0, "number of oldest window entries spilled per drain (0 takes a quarter of the window)")
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: broker [-data dir] [-window n] [-drain n] <port>")
		os.Exit(1)
	}

	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "broker: invalid port %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	srv, err := broker.NewServer(broker.Options{
		DataDir: *dataDir,
		Window:  *window,
		Drain:   *drain,
	})
	if err != nil {
		commons.Log.Error("broker/main: failed to start", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	commons.CaptureSignals(ctx, cancel)

	if err := srv.Run(ctx, port); err != nil {
		commons.Log.Error("broker/main: server exited with error", zap.Error(err))
		os.Exit(1)
	}
}
