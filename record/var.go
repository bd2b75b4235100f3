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

package record

import (
	"encoding/binary"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
)

// varHeader reads a variable field's (offset, length) pair from the
// fixed part, per spec.md §4.3: offset is the distance from the end of
// the fixed part to the payload's first byte; length is the payload byte
// count.
func (r *Record) varHeader(id field.ID) (hdrOff, payloadOff, payloadLen int, err error) {
	off, ok := r.tpl.Offset(id)
	if !ok {
		return 0, 0, 0, errs.Errorf(errs.CallerContract, "record.var", "field id %d not in template", id)
	}
	typ, _ := r.tpl.Registry().TypeOf(id)
	if !typ.IsVariable() {
		return 0, 0, 0, errs.Errorf(errs.CallerContract, "record.var", "field id %d is not variable-length", id)
	}
	o := binary.BigEndian.Uint16(r.buf[off : off+2])
	l := binary.BigEndian.Uint16(r.buf[off+2 : off+4])
	return off, int(o), int(l), nil
}

// GetVarPtr returns the payload slice for a variable-length field,
// aliasing the record's backing buffer, per spec.md §4.3's
// get_var_ptr. The slice becomes invalid after any SetVar/ClearVar call
// on the same record.
func (r *Record) GetVarPtr(id field.ID) ([]byte, error) {
	_, payloadOff, payloadLen, err := r.varHeader(id)
	if err != nil {
		return nil, err
	}
	start := r.tpl.StaticSize() + payloadOff
	return r.buf[start : start+payloadLen], nil
}

// GetVar is GetVarPtr but returns a copy safe to retain across further
// mutation of r.
func (r *Record) GetVar(id field.ID) ([]byte, error) {
	p, err := r.GetVarPtr(id)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// VarLen returns the current payload length of a variable-length field.
func (r *Record) VarLen(id field.ID) (int, error) {
	_, _, payloadLen, err := r.varHeader(id)
	return payloadLen, err
}

// SetVar replaces a variable-length field's payload with data. If the
// new length differs from the old, all following variable payloads (in
// canonical order) are shifted and their stored offsets updated; the
// invariants in spec.md §4.3 ("Resizing algorithm") are preserved. Fails
// with errs.CallerContract if id is not present or the record would
// exceed MaxSize.
func (r *Record) SetVar(id field.ID, data []byte) error {
	hdrOff, oldOff, oldLen, err := r.varHeader(id)
	if err != nil {
		return err
	}
	if len(data) > 0xFFFF {
		return errs.Errorf(errs.CallerContract, "record.setVar", "payload of %d bytes exceeds 65535-byte field limit", len(data))
	}
	newLen := len(data)
	delta := newLen - oldLen
	newTotal := len(r.buf) + delta
	if newTotal > MaxSize {
		return errs.Errorf(errs.CallerContract, "record.setVar", "record would grow to %d bytes, exceeding %d-byte limit", newTotal, MaxSize)
	}

	staticSize := r.tpl.StaticSize()
	payloadStart := staticSize + oldOff
	payloadEnd := payloadStart + oldLen

	newBuf := make([]byte, newTotal)
	copy(newBuf[:payloadStart], r.buf[:payloadStart])
	copy(newBuf[payloadStart:payloadStart+newLen], data)
	copy(newBuf[payloadStart+newLen:], r.buf[payloadEnd:])

	binary.BigEndian.PutUint16(newBuf[hdrOff+2:hdrOff+4], uint16(newLen))

	if delta != 0 {
		ordinal, _ := r.tpl.VarOrdinal(id)
		for i, fid := range r.tpl.VariableFields() {
			if i <= ordinal {
				continue
			}
			fhdr, ok := r.tpl.Offset(fid)
			if !ok {
				continue
			}
			followOff := binary.BigEndian.Uint16(newBuf[fhdr : fhdr+2])
			binary.BigEndian.PutUint16(newBuf[fhdr:fhdr+2], uint16(int(followOff)+delta))
		}
	}

	r.buf = newBuf
	return nil
}

// ClearVar sets every variable field's (offset, length) pair to zero and
// drops the record's variable tail entirely, per spec.md §4.3's
// clear_var — a bulk-clear shortcut before setting a new set of variable
// fields.
func (r *Record) ClearVar() {
	staticSize := r.tpl.StaticSize()
	for _, fid := range r.tpl.VariableFields() {
		hdrOff, _ := r.tpl.Offset(fid)
		binary.BigEndian.PutUint16(r.buf[hdrOff:hdrOff+2], 0)
		binary.BigEndian.PutUint16(r.buf[hdrOff+2:hdrOff+4], 0)
	}
	r.buf = r.buf[:staticSize]
}

// ArrayResize resizes a variable field treated as a homogeneous array of
// its type's element size to newByteLen bytes, preserving existing
// element values and zero-filling any newly added bytes, per spec.md
// §4.3's array_resize. newByteLen need not be a multiple of the element
// size (the caller may be mid-append), but callers typically keep it so.
func (r *Record) ArrayResize(id field.ID, newByteLen int) error {
	cur, err := r.GetVar(id)
	if err != nil {
		return err
	}
	out := make([]byte, newByteLen)
	copy(out, cur)
	return r.SetVar(id, out)
}

// ArrayAppendSlot grows a variable field treated as a homogeneous array
// by one zeroed element and returns a pointer to that new element, per
// spec.md §4.3's array_append_slot. The returned slice aliases the
// record's backing buffer and is invalidated by any subsequent
// SetVar/ClearVar/ArrayResize/ArrayAppendSlot call.
func (r *Record) ArrayAppendSlot(id field.ID) ([]byte, error) {
	typ, ok := r.tpl.Registry().TypeOf(id)
	if !ok || !typ.IsArray() {
		return nil, errs.Errorf(errs.CallerContract, "record.arrayAppendSlot", "field id %d is not an array type", id)
	}
	elemSize := typ.ElementSize()
	curLen, err := r.VarLen(id)
	if err != nil {
		return nil, err
	}
	if err := r.ArrayResize(id, curLen+elemSize); err != nil {
		return nil, err
	}
	full, err := r.GetVarPtr(id)
	if err != nil {
		return nil, err
	}
	return full[curLen : curLen+elemSize], nil
}

// ArrayLen returns the element count of a variable field treated as a
// homogeneous array.
func (r *Record) ArrayLen(id field.ID) (int, error) {
	typ, ok := r.tpl.Registry().TypeOf(id)
	if !ok || !typ.IsArray() {
		return 0, errs.Errorf(errs.CallerContract, "record.arrayLen", "field id %d is not an array type", id)
	}
	n, err := r.VarLen(id)
	if err != nil {
		return 0, err
	}
	return n / typ.ElementSize(), nil
}
