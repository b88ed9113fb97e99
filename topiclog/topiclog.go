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

// Package topiclog implements the per-topic ordered message store: a
// dense monotonic sequence per topic, a bounded in-memory window, and
// an append-only backing file for everything the window has spilled.
package topiclog

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dataence/bithacks"

	"github.com/pktrelay/broker/fsutil"
)

// DefaultWindow and DefaultDrain are the policy knobs governing window
// size and drain batch size; both are tunable per topic, not invariant.
const (
	DefaultWindow = 500
	DefaultDrain  = DefaultWindow / 4
)

var ErrNotFound = errors.New("topiclog: sequence not found")

// Log is one topic's ordered message store. The in-memory window is a
// ring buffer sized to the next power of two at or above twice the
// configured window bound, which keeps index arithmetic a mask instead
// of a modulo.
type Log struct {
	sandbox  *fsutil.Sandbox
	filename string

	window []string // ring buffer of "<seq> <rendered>" entries
	mask   int64
	head   int64 // index of the oldest entry in window
	count  int64 // number of entries currently in window

	windowBound int64
	drainCount  int64

	lastSequence int64 // -1 means empty
}

// New creates a Log backed by filename within sandbox, with window
// bound w and drain count d (pass 0 for both to take the defaults).
func New(sandbox *fsutil.Sandbox, filename string, w, d int) (*Log, error) {
	if w <= 0 {
		w = DefaultWindow
	}
	if d <= 0 {
		d = DefaultDrain
	}

	// The ring buffer is sized with headroom beyond the policy window
	// bound so that a single failed drain doesn't force an immediate
	// overwrite of undrained entries: the window keeps accepting
	// appends past w until the backing file catches up.
	target := w * 2
	if target < w+1 {
		target = w + 1
	}
	capacity := int64(target)
	if !bithacks.PowerOfTwo(target) {
		capacity = bithacks.RoundUpPowerOfTwo64(capacity)
	}

	f, err := sandbox.OpenAppend(filename)
	if err != nil {
		return nil, fmt.Errorf("topiclog/New: %w", err)
	}
	f.Close()

	return &Log{
		sandbox:      sandbox,
		filename:     filename,
		window:       make([]string, capacity),
		mask:         capacity - 1,
		windowBound:  int64(w),
		drainCount:   int64(d),
		lastSequence: -1,
	}, nil
}

// LastSequence returns the most recently assigned sequence, or -1 if the
// topic has never had a message appended to it.
func (l *Log) LastSequence() int64 {
	return l.lastSequence
}

// Append assigns the next dense sequence number to msg, pushes it into
// the window, and drains the oldest drainCount entries (a quarter of the
// window by default) to the backing file first if the window has
// reached its policy bound.
//
// A failed drain is returned to the caller to log, but never blocks the
// append itself: the ring has headroom past windowBound precisely so a
// transient filesystem error degrades to "drain again next time"
// instead of overwriting an entry that was never persisted.
func (l *Log) Append(msg string) (int64, error) {
	var drainErr error
	if l.count >= l.windowBound {
		drainErr = l.drain(l.drainCount)
	}

	if l.count == int64(len(l.window)) {
		// Headroom exhausted: the backing file has fallen behind for
		// drainErr's reason. Try to drain the whole window; if that
		// fails too, drop the oldest drainCount entries so the append
		// below always has a free slot. This is the one case where
		// losing at most drainCount of the very oldest, already
		// doubly-retried entries is preferable to refusing new
		// publications outright.
		if err := l.drain(l.count); err != nil {
			if drainErr == nil {
				drainErr = err
			}
			n := l.drainCount
			if n > l.count {
				n = l.count
			}
			l.head = (l.head + n) & l.mask
			l.count -= n
		}
	}

	l.lastSequence++
	seq := l.lastSequence

	idx := (l.head + l.count) & l.mask
	l.window[idx] = fmt.Sprintf("%d %s", seq, msg)
	l.count++

	return seq, drainErr
}

// drain writes the oldest n window entries to the backing file and
// removes them from memory, bounding the amortized cost of spills.
func (l *Log) drain(n int64) error {
	if n > l.count {
		n = l.count
	}
	if n == 0 {
		return nil
	}

	f, err := l.sandbox.OpenAppend(l.filename)
	if err != nil {
		return fmt.Errorf("topiclog/drain: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := int64(0); i < n; i++ {
		idx := (l.head + i) & l.mask
		if _, err := w.WriteString(l.window[idx]); err != nil {
			return fmt.Errorf("topiclog/drain: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("topiclog/drain: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("topiclog/drain: %w", err)
	}

	l.head = (l.head + n) & l.mask
	l.count -= n
	return nil
}

// smallestInWindow returns the sequence number of the oldest entry
// currently held in memory, or lastSequence+1 (i.e. "none") if the
// window is empty.
func (l *Log) smallestInWindow() int64 {
	if l.count == 0 {
		return l.lastSequence + 1
	}
	return l.lastSequence - l.count + 1
}

// Get returns the rendered text for sequence seq, scanning the backing
// file if seq has already been spilled out of the window, or the window
// itself otherwise.
func (l *Log) Get(seq int64) (string, error) {
	if seq < 0 || seq > l.lastSequence {
		return "", ErrNotFound
	}

	if seq < l.smallestInWindow() {
		found := l.scanFile(seq, seq)
		if len(found) == 0 {
			return "", ErrNotFound
		}
		return found[0], nil
	}

	offset := seq - (l.lastSequence - l.count + 1)
	idx := (l.head + offset) & l.mask
	_, rendered := splitSeqLine(l.window[idx])
	return rendered, nil
}

// Range returns the rendered messages in [lo, hi], clamped to
// last_sequence and with lo/hi swapped if given in reverse order.
func (l *Log) Range(lo, hi int64) ([]string, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi > l.lastSequence {
		hi = l.lastSequence
	}
	if lo < 0 {
		lo = 0
	}
	if lo > hi {
		return nil, nil
	}

	boundary := l.smallestInWindow()

	var out []string
	if lo < boundary {
		fileHi := hi
		if fileHi >= boundary {
			fileHi = boundary - 1
		}
		out = append(out, l.scanFile(lo, fileHi)...)
		lo = boundary
	}

	for seq := lo; seq <= hi; seq++ {
		offset := seq - (l.lastSequence - l.count + 1)
		idx := (l.head + offset) & l.mask
		_, rendered := splitSeqLine(l.window[idx])
		out = append(out, rendered)
	}

	return out, nil
}

// Last returns the most recently appended message while it is still in
// the in-memory window; it reports false whenever the window is empty,
// including after Flush has spilled everything to the backing file.
func (l *Log) Last() (string, bool) {
	if l.count == 0 {
		return "", false
	}
	idx := (l.head + l.count - 1) & l.mask
	_, rendered := splitSeqLine(l.window[idx])
	return rendered, true
}

// Flush drains the entire window to the backing file, called for every
// topic at shutdown.
func (l *Log) Flush() error {
	return l.drain(l.count)
}

func (l *Log) scanFile(lo, hi int64) []string {
	out := make([]string, 0, hi-lo+1)
	f, err := l.sandbox.Open(l.filename)
	if err != nil {
		return out
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		seq, rendered := splitSeqLine(scanner.Text())
		if seq > hi {
			break
		}
		if seq >= lo {
			out = append(out, rendered)
		}
	}
	return out
}

func splitSeqLine(line string) (int64, string) {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return -1, line
	}
	seq, err := strconv.ParseInt(line[:sp], 10, 64)
	if err != nil {
		return -1, line
	}
	return seq, line[sp+1:]
}

