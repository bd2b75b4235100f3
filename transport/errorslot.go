// Copyright 2015 Matthew Holt and The Caddy Authors
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

package transport

import "sync"

// errorSlot is the thread-safe "error code and message buffer" an
// endpoint exposes to callers, per spec.md §7's propagation policy:
// "Caller-contract errors are surfaced to the calling thread with an
// error code and a message buffer on the endpoint's error slot
// (thread-safe; protected by a mutex)." Modeled on the teacher's
// internal.LogBufferCore, which buffers entries behind the same kind of
// mutex-guarded slot; here only the most recent error is kept since
// callers poll it after a failed call rather than replaying history.
type errorSlot struct {
	mu  sync.Mutex
	err error
}

func (s *errorSlot) set(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *errorSlot) get() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *errorSlot) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}
