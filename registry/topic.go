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

// Package registry implements the broker's topic/subscriber bookkeeping:
// topic name<->id, subscriber identity<->state, per-(subscriber,
// topic) SF+cursor, and the pending-address table for in-flight accepts.
package registry

// Topic is the registry's view of a named channel: its numeric id and
// name. The ordered message log itself lives in package topiclog, keyed
// by this id.
type Topic struct {
	ID   uint32
	Name string
}
