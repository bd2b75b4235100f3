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

package mbuf

import "time"

// MaxBackoff is the cap mentioned throughout spec.md §4.4/§5 ("capped
// exponential backoff up to 5 ms").
const MaxBackoff = 5 * time.Millisecond

const minBackoff = 50 * time.Microsecond

// Backoff implements the capped-exponential spin-wait used by
// finish-active's lowest-cursor wait and by sender threads polling for
// a new container, per spec.md §4.4/§5. It is not safe for concurrent
// use; each waiting goroutine should own one.
type Backoff struct {
	cur time.Duration
}

// Reset returns the Backoff to its initial delay, called whenever the
// condition being waited on changes (e.g. a new attempt loop begins).
func (b *Backoff) Reset() { b.cur = 0 }

// Wait sleeps for the current delay and doubles it for next time,
// capped at MaxBackoff.
func (b *Backoff) Wait() {
	if b.cur == 0 {
		b.cur = minBackoff
	}
	time.Sleep(b.cur)
	b.cur *= 2
	if b.cur > MaxBackoff {
		b.cur = MaxBackoff
	}
}
