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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
	"github.com/CESNET/Nemea-Framework-sub000/template"
)

// DataType is the hello message's leading tag byte, per spec.md §6.
type DataType uint8

const (
	DataTypeRaw DataType = iota
	DataTypeSchema
)

// Outcome enumerates format-negotiation results, per spec.md §4.6.
type Outcome int

const (
	Ok Outcome = iota
	FmtChanged
	ReceiverSubset
	SenderSubset
	FmtMismatch
	FmtUnknown
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "Ok"
	case FmtChanged:
		return "FmtChanged"
	case ReceiverSubset:
		return "ReceiverSubset"
	case SenderSubset:
		return "SenderSubset"
	case FmtMismatch:
		return "FmtMismatch"
	case FmtUnknown:
		return "FmtUnknown"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// WriteHello writes the hello message: a tag byte and, for
// DataTypeSchema, a 4-byte big-endian length followed by the UTF-8 spec
// string, per spec.md §6.
func WriteHello(w io.Writer, dt DataType, spec string) error {
	if _, err := w.Write([]byte{byte(dt)}); err != nil {
		return errs.New(errs.Io, "transport.writeHello", err)
	}
	if dt != DataTypeSchema {
		return nil
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(spec)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errs.New(errs.Io, "transport.writeHello", err)
	}
	if _, err := io.WriteString(w, spec); err != nil {
		return errs.New(errs.Io, "transport.writeHello", err)
	}
	return nil
}

// ReadHello reads the hello message written by WriteHello.
func ReadHello(r io.Reader) (DataType, string, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return 0, "", errs.New(errs.Io, "transport.readHello", err)
	}
	dt := DataType(tagBuf[0])
	if dt != DataTypeSchema {
		return dt, "", nil
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, "", errs.New(errs.Io, "transport.readHello", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, "", errs.New(errs.Io, "transport.readHello", err)
	}
	return dt, string(buf), nil
}

// Negotiate resolves a peer's hello message against this side's
// expectations, per spec.md §4.6:
//
//   - peerDataType/peerSpec is what was just read off the wire via
//     ReadHello.
//   - expected is this side's required template, or nil if this side is
//     format-agnostic (accepts whatever the peer declares).
//
// Any new field names in peerSpec are registered into reg on the fly,
// matching the "registering any unknown field names on the fly" clause
// for FmtChanged handling.
func Negotiate(reg *field.Registry, expected *template.Template, peerDataType DataType, peerSpec string) (Outcome, *template.Template, error) {
	if peerDataType == DataTypeRaw {
		if expected == nil {
			return Ok, nil, nil
		}
		return FmtUnknown, nil, nil
	}

	types, names, err := template.ParseTypedSpec(peerSpec)
	if err != nil {
		return Failed, nil, err
	}

	ids := make([]field.ID, len(names))
	for i, name := range names {
		id, defErr := reg.Define(name, types[i])
		if defErr != nil {
			if errs.Of(defErr) == errs.CallerContract {
				return FmtMismatch, nil, nil
			}
			return Failed, nil, defErr
		}
		ids[i] = id
	}

	peerTpl, err := template.CreateFromIDs(reg, ids)
	if err != nil {
		return Failed, nil, err
	}

	if expected == nil {
		return FmtChanged, peerTpl, nil
	}
	if template.Compare(peerTpl, expected) {
		return Ok, expected, nil
	}
	if template.IsSubsetOf(expected, peerTpl) {
		return ReceiverSubset, peerTpl, nil
	}
	if template.IsSubsetOf(peerTpl, expected) {
		return SenderSubset, expected, nil
	}
	return FmtMismatch, nil, nil
}
