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

// Package fsutil is the broker's path-sandboxed filesystem helper, the
// concrete implementation topiclog is wired against.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideSandbox is returned when a requested path resolves outside
// the Sandbox's root.
var ErrOutsideSandbox = errors.New("fsutil: path escapes sandbox root")

// Sandbox resolves every path it is asked to touch against a root
// directory and refuses anything that escapes it, the Go equivalent of
// the original's realpath-plus-prefix-comparison check.
type Sandbox struct {
	root string
}

// New returns a Sandbox rooted at dir. dir is created (including any
// missing parents) if it doesn't already exist.
func New(dir string) (*Sandbox, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, err
	}
	return &Sandbox{root: abs}, nil
}

func (s *Sandbox) resolve(name string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.root, name))
	if err != nil {
		return "", err
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", ErrOutsideSandbox
	}
	return abs, nil
}

// OpenAppend opens (creating if necessary) the file at name for
// appending, within the sandbox root.
func (s *Sandbox) OpenAppend(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
}

// Open opens the file at name for reading, within the sandbox root.
func (s *Sandbox) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the file at name, within the sandbox root. A missing
// file is not an error.
func (s *Sandbox) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
