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

// Package record implements REC: a byte buffer laid out according to a
// template.Template, with fixed and variable-length field accessors, per
// spec.md §4.3.
package record

import (
	"encoding/binary"
	"math"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
	"github.com/CESNET/Nemea-Framework-sub000/template"
)

// MaxSize is the largest a record's wire bytes may be (fixed part plus
// variable tail), per spec.md §4.3: offsets and lengths are stored in
// 16-bit fields.
const MaxSize = 65535

// Record is a fixed-part-plus-variable-tail byte buffer interpreted
// according to a template.Template. The zero value is not usable; use
// New.
type Record struct {
	tpl *template.Template
	buf []byte
}

// New allocates a Record for tpl with an empty variable-length tail: buf
// holds exactly tpl.StaticSize() bytes, all zero, and every variable
// field's offset/length header set to 0.
func New(tpl *template.Template) *Record {
	return &Record{
		tpl: tpl,
		buf: make([]byte, tpl.StaticSize()),
	}
}

// NewWithCapacity is New plus extraBytes of pre-reserved headroom in the
// backing array (capped so the total never exceeds MaxSize), per
// spec.md §4.3's create(tpl, extra_bytes). The record's logical Size()
// is unaffected. SetVar builds a new backing array on every call, so
// it does not reuse this headroom.
func NewWithCapacity(tpl *template.Template, extraBytes int) *Record {
	size := tpl.StaticSize()
	capacity := size + extraBytes
	if capacity > MaxSize {
		capacity = MaxSize
	}
	buf := make([]byte, size, capacity)
	return &Record{tpl: tpl, buf: buf}
}

// FromBytes wraps an existing wire buffer (fixed part + variable tail) as
// a Record under tpl, without copying. The caller must not mutate buf
// concurrently with use of the returned Record.
func FromBytes(tpl *template.Template, buf []byte) (*Record, error) {
	if len(buf) < tpl.StaticSize() {
		return nil, errs.Errorf(errs.CallerContract, "record.fromBytes",
			"buffer too short: have %d bytes, template needs %d", len(buf), tpl.StaticSize())
	}
	return &Record{tpl: tpl, buf: buf}, nil
}

// Template returns the template this record is laid out under.
func (r *Record) Template() *template.Template { return r.tpl }

// Bytes returns the record's full wire representation: fixed part
// followed by the variable-length tail, per spec.md §4.3.
func (r *Record) Bytes() []byte { return r.buf }

// Size returns len(r.Bytes()).
func (r *Record) Size() int { return len(r.buf) }

func (r *Record) fixedSlice(id field.ID, size int) ([]byte, error) {
	off, ok := r.tpl.Offset(id)
	if !ok {
		return nil, errs.Errorf(errs.CallerContract, "record.field", "field id %d not in template", id)
	}
	typ, _ := r.tpl.Registry().TypeOf(id)
	if typ.IsVariable() {
		return nil, errs.Errorf(errs.CallerContract, "record.field", "field id %d is variable-length", id)
	}
	if typ.Size() != size {
		return nil, errs.Errorf(errs.CallerContract, "record.field",
			"field id %d has size %d, accessor wants %d", id, typ.Size(), size)
	}
	return r.buf[off : off+size], nil
}

// GetUint8/GetUint16/.../GetFloat64 read a fixed scalar field by id. An
// error is returned if the id is absent from the template, is variable-
// length, or does not match the requested width.

func (r *Record) GetUint8(id field.ID) (uint8, error) {
	b, err := r.fixedSlice(id, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Record) SetUint8(id field.ID, v uint8) error {
	b, err := r.fixedSlice(id, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (r *Record) GetInt8(id field.ID) (int8, error) {
	v, err := r.GetUint8(id)
	return int8(v), err
}

func (r *Record) SetInt8(id field.ID, v int8) error {
	return r.SetUint8(id, uint8(v))
}

func (r *Record) GetUint16(id field.ID) (uint16, error) {
	b, err := r.fixedSlice(id, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Record) SetUint16(id field.ID, v uint16) error {
	b, err := r.fixedSlice(id, 2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, v)
	return nil
}

func (r *Record) GetInt16(id field.ID) (int16, error) {
	v, err := r.GetUint16(id)
	return int16(v), err
}

func (r *Record) SetInt16(id field.ID, v int16) error {
	return r.SetUint16(id, uint16(v))
}

func (r *Record) GetUint32(id field.ID) (uint32, error) {
	b, err := r.fixedSlice(id, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Record) SetUint32(id field.ID, v uint32) error {
	b, err := r.fixedSlice(id, 4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, v)
	return nil
}

func (r *Record) GetInt32(id field.ID) (int32, error) {
	v, err := r.GetUint32(id)
	return int32(v), err
}

func (r *Record) SetInt32(id field.ID, v int32) error {
	return r.SetUint32(id, uint32(v))
}

func (r *Record) GetUint64(id field.ID) (uint64, error) {
	b, err := r.fixedSlice(id, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Record) SetUint64(id field.ID, v uint64) error {
	b, err := r.fixedSlice(id, 8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b, v)
	return nil
}

func (r *Record) GetInt64(id field.ID) (int64, error) {
	v, err := r.GetUint64(id)
	return int64(v), err
}

func (r *Record) SetInt64(id field.ID, v int64) error {
	return r.SetUint64(id, uint64(v))
}

func (r *Record) GetFloat32(id field.ID) (float32, error) {
	v, err := r.GetUint32(id)
	return math.Float32frombits(v), err
}

func (r *Record) SetFloat32(id field.ID, v float32) error {
	return r.SetUint32(id, math.Float32bits(v))
}

func (r *Record) GetFloat64(id field.ID) (float64, error) {
	v, err := r.GetUint64(id)
	return math.Float64frombits(v), err
}

func (r *Record) SetFloat64(id field.ID, v float64) error {
	return r.SetUint64(id, math.Float64bits(v))
}

func (r *Record) GetIPAddr(id field.ID) (field.IPAddr, error) {
	b, err := r.fixedSlice(id, 16)
	if err != nil {
		return field.IPAddr{}, err
	}
	return field.IPAddrFromBytes16(b), nil
}

func (r *Record) SetIPAddr(id field.ID, v field.IPAddr) error {
	b, err := r.fixedSlice(id, 16)
	if err != nil {
		return err
	}
	field.PutIPAddr(b, v)
	return nil
}

func (r *Record) GetMACAddr(id field.ID) (field.MACAddr, error) {
	b, err := r.fixedSlice(id, 6)
	if err != nil {
		return field.MACAddr{}, err
	}
	return field.MACAddrFromBytes6(b), nil
}

func (r *Record) SetMACAddr(id field.ID, v field.MACAddr) error {
	b, err := r.fixedSlice(id, 6)
	if err != nil {
		return err
	}
	field.PutMACAddr(b, v)
	return nil
}

func (r *Record) GetTime(id field.ID) (field.Timestamp, error) {
	v, err := r.GetUint64(id)
	return field.Timestamp(v), err
}

func (r *Record) SetTime(id field.ID, v field.Timestamp) error {
	return r.SetUint64(id, uint64(v))
}
