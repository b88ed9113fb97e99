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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pktrelay/broker/fsutil"
)

func newTestLog(t *testing.T, w, d int) *Log {
	t.Helper()
	sb, err := fsutil.New(t.TempDir())
	require.NoError(t, err)
	l, err := New(sb, "topic", w, d)
	require.NoError(t, err)
	return l
}

func TestAppend_SequenceAdvancesByOne(t *testing.T) {
	l := newTestLog(t, 4, 1)

	var last int64 = -1
	for i := 0; i < 10; i++ {
		seq, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
		require.Equal(t, last+1, seq)
		last = seq
	}
}

func TestAppend_SpillsToFileAndRangeReassembles(t *testing.T) {
	l := newTestLog(t, 4, 1)

	for i := 0; i < 10; i++ {
		_, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	got, err := l.Range(0, 9)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, v := range got {
		require.Equal(t, fmt.Sprintf("msg-%d", i), v)
	}
}

func TestGet_BothInWindowAndInFile(t *testing.T) {
	l := newTestLog(t, 4, 1)
	for i := 0; i < 10; i++ {
		_, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	v, err := l.Get(0) // spilled to file
	require.NoError(t, err)
	require.Equal(t, "msg-0", v)

	v, err = l.Get(9) // still in window
	require.NoError(t, err)
	require.Equal(t, "msg-9", v)
}

func TestRange_ClampsAndSwapsReversedBounds(t *testing.T) {
	l := newTestLog(t, 500, 125)
	for i := 0; i < 5; i++ {
		_, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	got, err := l.Range(100, 0) // reversed and past last_sequence
	require.NoError(t, err)
	require.Len(t, got, 5)
}

func TestRangeRoundTrip_SingleMessage(t *testing.T) {
	l := newTestLog(t, 4, 1)
	for i := 0; i < 10; i++ {
		_, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	for seq := int64(0); seq < 10; seq++ {
		got, err := l.Range(seq, seq)
		require.NoError(t, err)
		require.Equal(t, []string{fmt.Sprintf("msg-%d", seq)}, got)
	}
}

func TestFlush_DrainsEntireWindow(t *testing.T) {
	l := newTestLog(t, 500, 125)
	for i := 0; i < 3; i++ {
		_, err := l.Append(fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	require.NoError(t, l.Flush())
	require.Equal(t, int64(0), l.count)

	got, err := l.Range(0, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"msg-0", "msg-1", "msg-2"}, got)
}

func TestLast_ReflectsMostRecentAppend(t *testing.T) {
	l := newTestLog(t, 4, 1)
	_, err := l.Append("first")
	require.NoError(t, err)
	_, err = l.Append("second")
	require.NoError(t, err)

	v, ok := l.Last()
	require.True(t, ok)
	require.Equal(t, "second", v)
}
