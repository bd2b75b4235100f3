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
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// init adjusts GOMAXPROCS to match any Linux container CPU quota before
// an endpoint starts fanning out the accept loop, the auto-flush loop
// and one sender goroutine per connected consumer. Unlike a short-lived
// CLI command, this package has no single exit point to run the returned
// undo function from, so the adjustment is left in effect for the life
// of the process.
func init() {
	_, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	if err != nil {
		zap.L().Warn("transport: failed to set GOMAXPROCS", zap.Error(err))
	}
}
