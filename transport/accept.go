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
	"net"
	"os"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CESNET/Nemea-Framework-sub000/template"
)

// acceptLoop runs in its own goroutine for the lifetime of the
// endpoint, per spec.md §4.5's accept loop. It blocks in Accept on the
// listening socket; Terminate closes that socket to wake it, the same
// "self-pipe" wakeup the spec describes, generalized here to Go's
// native Listener.Close-unblocks-Accept behavior instead of a literal
// pipe fd.
func (e *Endpoint) acceptLoop() {
	defer e.wg.Done()
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			select {
			case <-e.done:
				return
			default:
				e.log.Warn("accept failed", zap.Error(err))
				return
			}
		}
		e.handleAccept(conn)
	}
}

// handleAccept implements accept-loop steps 2-4 of spec.md §4.5:
// derive a stable client id, enforce max_clients, and on success
// negotiate the output format and spawn the consumer's sender thread.
func (e *Endpoint) handleAccept(conn net.Conn) {
	id := clientID(conn)

	e.mu.Lock()
	if e.connected >= e.addr.MaxClients {
		e.mu.Unlock()
		_ = conn.Close()
		return
	}
	e.clientPending = true
	tail := e.mb.Tail()
	e.mu.Unlock()

	c := &consumer{id: id, conn: conn, state: consumerPending, cursor: tail}

	outcome, tpl, err := e.negotiateOutput(conn)

	e.mu.Lock()
	e.clientPending = false
	accepted := err == nil && (outcome == Ok || outcome == FmtChanged || outcome == ReceiverSubset || outcome == SenderSubset)
	if !accepted {
		e.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.tpl = tpl
	c.state = consumerStreaming
	e.consumers = append(e.consumers, c)
	e.connected++
	e.mu.Unlock()

	if ce := e.log.Check(zap.DebugLevel, "consumer negotiated"); ce != nil && tpl != nil {
		if dump, derr := template.DumpYAML(tpl); derr == nil {
			ce.Write(zap.String("consumer", c.id), zap.String("layout", dump))
		}
	}

	e.wg.Add(1)
	go e.senderLoop(c)
}

// negotiateOutput performs the output-side half of the hello exchange
// (spec.md §4.6): this endpoint advertises its expected template (or
// raw data if format-agnostic), then reads the peer's hello and
// resolves the outcome via Negotiate.
func (e *Endpoint) negotiateOutput(conn net.Conn) (Outcome, *template.Template, error) {
	dt := DataTypeRaw
	spec := ""
	if e.expected != nil {
		dt = DataTypeSchema
		spec = template.ToTypedSpecString(e.expected, ",")
	}
	if err := WriteHello(conn, dt, spec); err != nil {
		return Failed, nil, err
	}

	peerDT, peerSpec, err := ReadHello(conn)
	if err != nil {
		return Failed, nil, err
	}

	return Negotiate(e.reg, e.expected, peerDT, peerSpec)
}

// disconnect implements spec.md §4.5's "disconnect of a consumer":
// under the endpoint lock, decrement connected_count, remove from the
// consumer list, shutdown+close the socket.
func (e *Endpoint) disconnect(c *consumer) {
	e.mu.Lock()
	for i, other := range e.consumers {
		if other == c {
			e.consumers = append(e.consumers[:i], e.consumers[i+1:]...)
			break
		}
	}
	e.connected--
	c.state = consumerDisconnected
	e.mu.Unlock()
	_ = c.conn.Close()
}

// unlinkLocalSocket removes the filesystem path of a local socket on
// endpoint destruction, per spec.md §5's resource policy. Errors are
// ignored: the path may not exist if Listen never succeeded.
func unlinkLocalSocket(path string) {
	_ = os.Remove(path)
}

// clientID derives the stable per-connection identifier spec.md §4.5
// calls for: pid via SO_PEERCRED for local sockets, remote port for
// network sockets. The peer-credential lookup is platform-specific
// (peercred_linux.go / peercred_other.go). When neither source yields
// anything (a non-Linux unix socket, or a transport whose RemoteAddr is
// empty), a random id is generated so every consumer still gets a
// unique, stable-for-the-connection's-lifetime identifier for logging.
func clientID(conn net.Conn) string {
	if _, ok := conn.(*net.UnixConn); ok {
		if pid, ok := peerPID(conn); ok {
			return "pid:" + strconv.Itoa(pid)
		}
	}
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return "anon:" + uuid.NewString()
}
