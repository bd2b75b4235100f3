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

import (
	"time"

	"go.uber.org/zap"
)

// autoflushPollCap bounds how long autoflushLoop ever sleeps in one
// iteration, so that a SetAutoflushPeriod call made after Listen takes
// effect within one poll tick rather than only after the previous
// (possibly much longer) period elapses.
const autoflushPollCap = 25 * time.Millisecond

// SetAutoflushPeriod changes the interval the auto-flush loop waits
// between forced finalizations of the active container. Safe to call
// at any time; the new period is observed on the loop's next wake.
func (e *Endpoint) SetAutoflushPeriod(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoflushEach = d
}

// autoflushLoop implements spec.md §4.4's auto-flush loop: sleep for
// the configured period; when the time since the last finish-active
// has reached that period, force a flush; otherwise sleep for the
// remaining delta (capped so period changes and termination stay
// responsive).
func (e *Endpoint) autoflushLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		period := e.autoflushEach
		elapsed := time.Since(e.autoflushAt)
		e.mu.Unlock()

		wait := period - elapsed
		if wait <= 0 {
			if err := e.Flush(); err != nil {
				e.log.Debug("autoflush skipped", zap.Error(err))
			}
			wait = period
		}
		if wait > autoflushPollCap {
			wait = autoflushPollCap
		}

		t := time.NewTimer(wait)
		select {
		case <-e.done:
			t.Stop()
			return
		case <-t.C:
		}
	}
}
