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

// Package transport implements TE: the multi-consumer streaming
// endpoint — connection acceptance, per-consumer sender threads,
// container batching and fan-out, and the format-negotiation handshake
// — per spec.md §4.5. The created→listening→terminated lifecycle and
// the listener bookkeeping follow the same shape as a long-running
// server's accept loop and graceful-shutdown sequence, generalized here
// from a single listener to a pool of concurrent consumer connections.
package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
	"github.com/CESNET/Nemea-Framework-sub000/mbuf"
	"github.com/CESNET/Nemea-Framework-sub000/template"
)

// state is the endpoint lifecycle state, per spec.md §4.5's
// created/listening/terminated machine.
type state int

const (
	stateCreated state = iota
	stateListening
	stateTerminated
)

// consumerState is the per-consumer sub-state machine: pending →
// streaming → disconnected.
type consumerState int

const (
	consumerPending consumerState = iota
	consumerStreaming
	consumerDisconnected
)

// consumer tracks one connected reader's cursor and negotiated
// template. cursor is the index of the next container this consumer
// has not yet seen (so refcount accounting treats a container as
// referenced while any consumer's cursor <= its ring index).
type consumer struct {
	id     string
	conn   net.Conn
	state  consumerState
	cursor int64
	tpl    *template.Template

	sentContainers int64
	sentRecords    int64
}

// Endpoint is one output transport endpoint: a listening socket feeding
// a bounded ring of containers to every connected consumer, per
// spec.md §4.4/§4.5. Exactly one mutex (mu) guards everything spec.md
// §5 lists: the active pointer, ring head/tail, the empty/deferred
// stacks (all inside mbuf), consumer list membership, the connected
// counter, and the terminated flag.
type Endpoint struct {
	addr    Address
	variant Variant
	log     *zap.Logger
	reg     *field.Registry

	expected *template.Template

	mu            sync.Mutex
	st            state
	mb            *mbuf.Mbuf
	consumers     []*consumer
	connected     int
	processedRecs uint64
	autoflushAt   time.Time
	autoflushEach time.Duration
	clientPending bool

	errSlot errorSlot

	listener net.Listener
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewEndpoint constructs an output endpoint from a parsed Address. The
// endpoint owns containerCapacity-sized buffers per spec.md §5's
// resource policy: active_containers + max_clients + 1, allocated once
// here and never again on the hot path. expected is the template this
// endpoint requires of every sender's hello; nil means format-agnostic.
// reg is the field registry consulted (and grown) during negotiation;
// nil selects the process-wide default registry.
func NewEndpoint(addr Address, expected *template.Template, reg *field.Registry, log *zap.Logger) (*Endpoint, error) {
	v, err := GetVariant(addr.Variant)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = field.Default()
	}
	e := &Endpoint{
		addr:          addr,
		variant:       v,
		log:           log,
		reg:           reg,
		expected:      expected,
		mb:            mbuf.New(addr.ActiveContainers, addr.MaxClients, addr.BufferSize),
		autoflushEach: time.Second,
		done:          make(chan struct{}),
	}
	e.autoflushAt = time.Now()
	return e, nil
}

// Listen opens the listening socket and starts the accept and
// auto-flush threads, transitioning the endpoint from created to
// listening.
func (e *Endpoint) Listen() error {
	e.mu.Lock()
	if e.st != stateCreated {
		e.mu.Unlock()
		return errs.Errorf(errs.CallerContract, "transport.listen", "endpoint is not in the created state")
	}
	e.mu.Unlock()

	ln, err := e.variant.Listen(context.Background(), e.addr)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.listener = ln
	e.st = stateListening
	e.mu.Unlock()

	e.wg.Add(2)
	go e.acceptLoop()
	go e.autoflushLoop()
	return nil
}

// Send implements the producer-facing send operation, per spec.md
// §4.5: "if len+2 exceeds a container's usable capacity, fail-drop...
// else if active has space, insert; else finish-active, get_empty, set
// sequence number, insert."
func (e *Endpoint) Send(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st == stateTerminated {
		err := errs.Errorf(errs.Terminated, "transport.send", "endpoint terminated")
		e.errSlot.set(err)
		return err
	}

	active := e.mb.Active()
	if !active.HasCapacity(len(data) + 2) {
		e.log.Warn("dropping oversized record", zap.Int("len", len(data)))
		return nil
	}
	if !active.HasSpace(len(data) + 2) {
		if err := e.finishActiveLocked(); err != nil {
			e.errSlot.set(err)
			return err
		}
		active = e.mb.Active()
	}
	if err := active.Insert(data); err != nil {
		e.errSlot.set(err)
		return err
	}
	e.processedRecs++
	return nil
}

// Flush implements the flush operation, per spec.md §4.5: a no-op if
// the active container has no payload beyond its header, otherwise
// finish-active.
func (e *Endpoint) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mb.Active().IsEmpty() {
		return nil
	}
	return e.finishActiveLocked()
}

// finishActiveLocked implements the finish-active protocol of spec.md
// §4.4. The caller must hold mu. In blocking mode, step (b)'s spin-wait
// releases mu while waiting for the lowest consumer cursor to advance
// past the container about to be overwritten, and re-acquires it
// before continuing — this is the one place the endpoint lock is
// dropped mid-call, mirroring the spec's "release the endpoint lock
// while waiting, then re-acquire" clause for a concurrently-accepting
// consumer.
func (e *Endpoint) finishActiveLocked() error {
	active := e.mb.Active()

	if e.addr.Blocking {
		var bo mbuf.Backoff
		for e.wouldOverwriteLiveContainer() {
			e.mu.Unlock()
			bo.Wait()
			e.mu.Lock()
			if e.st == stateTerminated {
				return errs.Errorf(errs.Terminated, "transport.flush", "endpoint terminated while waiting for a consumer")
			}
		}
	}

	active.WriteHeader(int(e.mb.Head() % int64(e.mb.RingCapacity())))

	evicted, hadOne := e.mb.Publish(active)
	if hadOne {
		if evicted.Refcount() <= 0 {
			evicted.Clear()
			e.mb.PushEmpty(evicted)
		} else {
			evicted.Release()
			e.mb.PushDeferred(evicted)
		}
	}

	fresh, ok := e.mb.GetEmptyTry()
	if !ok {
		return errs.Errorf(errs.Resource, "transport.flush", "no empty container available")
	}
	fresh.Clear()
	fresh.SetSequence(e.processedRecs)
	e.mb.SetActive(fresh)
	e.autoflushAt = time.Now()
	return nil
}

// wouldOverwriteLiveContainer reports whether publishing the active
// container right now would evict the ring's tail container before the
// slowest connected consumer has sent it (that consumer's cursor is at
// or below the tail index), per spec.md §4.4 step (b). Must be called
// with mu held.
func (e *Endpoint) wouldOverwriteLiveContainer() bool {
	if e.mb.Head()-e.mb.Tail() < int64(e.mb.RingCapacity()) {
		return false
	}
	lowest := e.lowestCursorLocked()
	return lowest >= 0 && lowest <= e.mb.Tail()
}

// lowestCursorLocked returns the smallest cursor among connected
// consumers, or -1 if there are none.
func (e *Endpoint) lowestCursorLocked() int64 {
	lowest := int64(-1)
	for _, c := range e.consumers {
		if c.state != consumerStreaming {
			continue
		}
		if lowest == -1 || c.cursor < lowest {
			lowest = c.cursor
		}
	}
	return lowest
}

// LastError returns the most recent error that Send recorded on the
// endpoint's error slot, per spec.md §7's propagation policy.
func (e *Endpoint) LastError() error { return e.errSlot.get() }

// Terminate sets the terminated flag and wakes every blocked thread;
// it does not wait for them (see Destroy for that), per spec.md §4.5.
func (e *Endpoint) Terminate() {
	e.mu.Lock()
	already := e.st == stateTerminated
	e.st = stateTerminated
	e.mu.Unlock()
	if already {
		return
	}
	close(e.done)
	if e.listener != nil {
		_ = e.listener.Close()
	}
}

// Destroy joins the accept and auto-flush threads, disconnects every
// remaining consumer, closes the listening socket, and unlinks the
// local-socket path if applicable, per spec.md §4.5.
func (e *Endpoint) Destroy() {
	e.Terminate()
	e.wg.Wait()

	e.mu.Lock()
	consumers := e.consumers
	e.consumers = nil
	e.mu.Unlock()

	var g errgroup.Group
	for _, c := range consumers {
		c := c
		g.Go(func() error {
			return c.conn.Close()
		})
	}
	_ = g.Wait()

	if e.addr.Variant == "unix" {
		unlinkLocalSocket(e.addr.LocalSocketPath())
	}
}
