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

// Package broker implements the event loop and the per-connection state
// machine on top of registry.Registry, topiclog.Manager and
// router.Fanout. Multiple worker goroutines handle I/O, but a single
// serial point keeps exclusive access to Registry and TopicLog:
// dispatchLoop is that point, and every other goroutine here only ever
// touches broker state through dispatchSync.
package broker

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pktrelay/broker/commons"
	"github.com/pktrelay/broker/fsutil"
	"github.com/pktrelay/broker/registry"
	"github.com/pktrelay/broker/topiclog"
)

// writeTimeout bounds how long a live fanout send may block the
// dispatch goroutine on one slow subscriber before it is treated as a
// transient failure and the handle disconnected: a short write deadline
// standing in for non-blocking sends and dropping a subscriber on
// EAGAIN bursts.
const writeTimeout = 50 * time.Millisecond

// Server owns the listeners, the dispatch goroutine and the set of live
// connections. registry.Registry and topiclog.Manager are reached only
// from inside a job run on dispatchLoop.
type Server struct {
	opts Options
	log  *zap.Logger

	reg  *registry.Registry
	logs *topiclog.Manager

	jobs chan job

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer prepares a Server backed by opts.DataDir. It does not bind
// any socket yet; that happens in Run.
func NewServer(opts Options) (*Server, error) {
	sandbox, err := fsutil.New(opts.dataDir())
	if err != nil {
		return nil, fmt.Errorf("broker/NewServer: %w", err)
	}

	return &Server{
		opts:  opts,
		log:   commons.Log,
		reg:   registry.New(),
		logs:  topiclog.NewManager(sandbox, opts.window(), opts.drain()),
		jobs:  make(chan job, 64),
		conns: make(map[net.Conn]struct{}),
	}, nil
}

// Run binds the TCP stream listener and UDP datagram listener on port,
// starts every I/O goroutine, and blocks until ctx is cancelled —
// either by the caller (e.g. a caught signal) or by the operator's
// "exit" command. It returns once shutdown has closed every subscriber
// handle and flushed every topic.
func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("broker/Run: %w", err)
	}
	defer ln.Close()

	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("broker/Run: %w", err)
	}
	defer pc.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.log.Info("broker listening", zap.Int("port", port), zap.String("data", s.opts.dataDir()))

	go s.dispatchLoop()
	go s.acceptLoop(ln)
	go s.datagramLoop(pc)
	go s.operatorLoop(cancel)

	<-runCtx.Done()
	s.shutdown()
	return nil
}

// acceptLoop accepts stream connections, backing off with increasing
// delay on transient accept errors.
func (s *Server) acceptLoop(ln net.Listener) {
	var tempDelay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				s.log.Error("accept error, retrying", zap.Duration("delay", tempDelay), zap.Error(err))
				time.Sleep(tempDelay)
				continue
			}
			s.log.Info("stream listener closed", zap.Error(err))
			return
		}
		tempDelay = 0

		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}

		addr := conn.RemoteAddr().String()
		s.log.Info("accepted connection", zap.String("addr", addr))
		s.trackConn(conn)
		s.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
			reg.ReserveAddress(conn, addr)
		})

		c := &connection{srv: s, conn: conn, addr: addr}
		go c.readLoop()
	}
}

// operatorLoop reads stdin commands: "exit" cancels the run context,
// ending Run; "subs" prints a diagnostic listing of online subscribers
// and what each topic last saw.
func (s *Server) operatorLoop(cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "exit":
			cancel()
			return
		case "subs":
			s.printSubs()
		case "":
		default:
			s.log.Info("unrecognized operator command")
		}
	}
	cancel()
}

func (s *Server) printSubs() {
	s.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		for _, sub := range reg.OnlineSubscribers() {
			fmt.Printf("%s online at %s\n", sub.Identity, sub.Addr)
			for topicID := range sub.Subscriptions {
				name, _ := reg.TopicName(topicID)
				tlog, err := logs.Get(topicID, name)
				if err != nil {
					continue
				}
				if last, ok := tlog.Last(); ok {
					fmt.Printf("  %s: %s\n", name, last)
				} else {
					fmt.Printf("  %s: (empty)\n", name)
				}
			}
		}
	})
}

// disconnectHandle runs the per-subscriber disconnect path: the handle
// is dropped from the Registry, untracked, and closed. Subscriptions
// survive; only handle/address/status are cleared.
func (s *Server) disconnectHandle(handle net.Conn) {
	var identity string
	s.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		if sub, ok := reg.GetUserByHandle(handle); ok {
			identity = sub.Identity
		}
		reg.DisconnectByHandle(handle)
	})
	s.log.Info("subscriber disconnected",
		zap.String("identity", identity), zap.String("addr", handle.RemoteAddr().String()))
	s.untrackConn(handle)
	handle.Close()
}

func (s *Server) trackConn(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrackConn(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// shutdown closes every live subscriber handle and flushes every topic,
// in that order, before Run's deferred listener closes run.
func (s *Server) shutdown() {
	s.log.Info("shutting down")

	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	s.dispatchSync(func(reg *registry.Registry, logs *topiclog.Manager) {
		if err := logs.FlushAll(); err != nil {
			s.log.Error("flush on shutdown failed", zap.Error(err))
		}
	})
}
