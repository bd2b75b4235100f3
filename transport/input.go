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
	"context"
	"encoding/binary"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/CESNET/Nemea-Framework-sub000/container"
	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
	"github.com/CESNET/Nemea-Framework-sub000/template"
)

// TimeoutMode selects how ReadRecord waits for data, per spec.md §5's
// "the input side accepts a caller-supplied timeout (wait-forever,
// non-blocking, or microsecond value)".
type TimeoutMode int

const (
	WaitForever TimeoutMode = iota
	NonBlocking
	Microseconds
)

// Timeout pairs a TimeoutMode with the duration used when the mode is
// Microseconds.
type Timeout struct {
	Mode  TimeoutMode
	Value time.Duration
}

func (t Timeout) deadline(now time.Time) time.Time {
	switch t.Mode {
	case NonBlocking:
		return now
	case Microseconds:
		return now.Add(t.Value)
	default:
		return time.Time{} // zero Time disables net.Conn's deadline entirely
	}
}

// Input is the receiving side of a transport connection: it dials an
// output endpoint, negotiates the format (§4.6), and hands back
// individual record byte slices pulled out of the container stream.
type Input struct {
	addr Address
	reg  *field.Registry
	log  *zap.Logger

	conn net.Conn
	tpl  *template.Template

	hdrBuf  [container.HeaderSize]byte
	payload []byte
	cursor  int
}

// NewInput constructs an input endpoint for the given address. expected
// is the template this side requires from the sender; nil accepts
// whatever the sender declares. reg is grown on the fly when the
// sender's hello introduces unknown field names.
func NewInput(addr Address, expected *template.Template, reg *field.Registry, log *zap.Logger) *Input {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = field.Default()
	}
	return &Input{addr: addr, reg: reg, log: log, tpl: expected}
}

// Connect dials the peer and performs the input-side half of the hello
// exchange (§4.6): read the sender's hello, negotiate, and on anything
// but a mismatch/unknown outcome install the resulting template.
func (in *Input) Connect(ctx context.Context) error {
	v, err := GetVariant(in.addr.Variant)
	if err != nil {
		return err
	}
	conn, err := v.Dial(ctx, in.addr)
	if err != nil {
		return err
	}

	peerDT, peerSpec, err := ReadHello(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	dt := DataTypeRaw
	spec := ""
	if in.tpl != nil {
		dt = DataTypeSchema
		spec = template.ToTypedSpecString(in.tpl, ",")
	}
	if err := WriteHello(conn, dt, spec); err != nil {
		_ = conn.Close()
		return err
	}

	outcome, tpl, err := Negotiate(in.reg, in.tpl, peerDT, peerSpec)
	if err != nil {
		_ = conn.Close()
		return err
	}
	switch outcome {
	case FmtMismatch:
		_ = conn.Close()
		return errs.Errorf(errs.NegotiationFormatMismatch, "transport.input.connect", "sender format does not match")
	case FmtUnknown:
		_ = conn.Close()
		return errs.Errorf(errs.CallerContract, "transport.input.connect", "sender declared no format")
	case Failed:
		_ = conn.Close()
		return errs.Errorf(errs.Io, "transport.input.connect", "hello exchange failed")
	}

	in.conn = conn
	in.tpl = tpl
	return nil
}

// Template returns the currently-installed template (nil for a raw,
// schema-agnostic stream).
func (in *Input) Template() *template.Template { return in.tpl }

// ReadRecord returns the next record's raw bytes from the container
// stream, reading a fresh container off the wire when the current one
// is exhausted. The returned slice aliases an internal buffer and is
// valid only until the next ReadRecord call.
func (in *Input) ReadRecord(timeout Timeout) ([]byte, error) {
	for {
		if in.cursor < len(in.payload) {
			if in.cursor+2 > len(in.payload) {
				return nil, errs.Errorf(errs.Io, "transport.input.readRecord", "truncated record length prefix")
			}
			n := int(binary.BigEndian.Uint16(in.payload[in.cursor : in.cursor+2]))
			start := in.cursor + 2
			if start+n > len(in.payload) {
				return nil, errs.Errorf(errs.Io, "transport.input.readRecord", "truncated record body")
			}
			in.cursor = start + n
			return in.payload[start : start+n], nil
		}
		if err := in.readContainer(timeout); err != nil {
			return nil, err
		}
	}
}

// readContainer reads one container's 14-byte header and payload,
// applying the caller's timeout as a read deadline computed at entry
// and re-derived before each underlying read, per spec.md §5.
func (in *Input) readContainer(timeout Timeout) error {
	now := time.Now()
	deadline := timeout.deadline(now)

	if err := in.conn.SetReadDeadline(deadline); err != nil {
		return errs.New(errs.Io, "transport.input.readContainer", err)
	}
	if _, err := io.ReadFull(in.conn, in.hdrBuf[:]); err != nil {
		return classifyReadErr(err)
	}

	payloadLen := binary.BigEndian.Uint32(in.hdrBuf[0:4])
	in.payload = make([]byte, payloadLen)
	if payloadLen > 0 {
		if err := in.conn.SetReadDeadline(timeout.deadline(time.Now())); err != nil {
			return errs.New(errs.Io, "transport.input.readContainer", err)
		}
		if _, err := io.ReadFull(in.conn, in.payload); err != nil {
			return classifyReadErr(err)
		}
	}
	in.cursor = 0
	return nil
}

func classifyReadErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errs.New(errs.Timeout, "transport.input.readContainer", err)
	}
	return errs.New(errs.Io, "transport.input.readContainer", err)
}

// Reinstall applies a newly-negotiated template, per spec.md §4.6's
// receive-path handling of FmtChanged: "the current template is
// expanded with the new fields ... and the template is reinstalled on
// the input endpoint (and, for a bidirectional template, also on the
// output endpoint)." outputSide may be nil when this stream is
// input-only.
func (in *Input) Reinstall(tpl *template.Template, outputSide *Endpoint) {
	in.tpl = tpl
	if outputSide != nil && tpl.Direction() == template.DirBi {
		outputSide.mu.Lock()
		outputSide.expected = tpl
		outputSide.mu.Unlock()
	}
}

// Close closes the underlying connection.
func (in *Input) Close() error {
	if in.conn == nil {
		return nil
	}
	return in.conn.Close()
}
