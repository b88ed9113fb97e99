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

package fsutil

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSandbox_OpenAppendAndRead(t *testing.T) {
	sb, err := New(t.TempDir())
	require.NoError(t, err)

	f, err := sb.OpenAppend("temp")
	require.NoError(t, err)
	_, err = f.WriteString("0 hello\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := sb.Open("temp")
	require.NoError(t, err)
	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "0 hello\n", string(body))
}

func TestSandbox_RejectsEscape(t *testing.T) {
	sb, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = sb.OpenAppend("../../etc/passwd")
	require.ErrorIs(t, err, ErrOutsideSandbox)
}

func TestSandbox_DeleteMissingIsNotError(t *testing.T) {
	sb, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, sb.Delete("never-created"))
}
