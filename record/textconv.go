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
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
)

// arrayElemSep separates elements inside an array's "[e1|e2|...]" text
// form, per spec.md §4.3's text-conversion grammar.
const arrayElemSep = "|"

// Iter returns the record's field ids in canonical order, which per
// spec.md §4.3 coincides with storage order.
func (r *Record) Iter() []field.ID { return r.tpl.Fields() }

// EmitField renders a single field's value as text, the inverse of
// ParseField, per spec.md §4.3.
func (r *Record) EmitField(id field.ID) (string, error) {
	typ, ok := r.tpl.Registry().TypeOf(id)
	if !ok {
		return "", errs.Errorf(errs.CallerContract, "record.emitField", "field id %d not in template", id)
	}
	if typ.IsArray() {
		return r.emitArray(id, typ)
	}
	switch typ {
	case field.TypeString:
		v, err := r.GetVar(id)
		if err != nil {
			return "", err
		}
		return quoteString(string(v)), nil
	case field.TypeBytes:
		v, err := r.GetVar(id)
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(v), nil
	default:
		return r.emitScalar(id, typ)
	}
}

func (r *Record) emitScalar(id field.ID, typ field.Type) (string, error) {
	switch typ {
	case field.TypeUint8:
		v, err := r.GetUint8(id)
		return strconv.FormatUint(uint64(v), 10), err
	case field.TypeInt8:
		v, err := r.GetInt8(id)
		return strconv.FormatInt(int64(v), 10), err
	case field.TypeUint16:
		v, err := r.GetUint16(id)
		return strconv.FormatUint(uint64(v), 10), err
	case field.TypeInt16:
		v, err := r.GetInt16(id)
		return strconv.FormatInt(int64(v), 10), err
	case field.TypeUint32:
		v, err := r.GetUint32(id)
		return strconv.FormatUint(uint64(v), 10), err
	case field.TypeInt32:
		v, err := r.GetInt32(id)
		return strconv.FormatInt(int64(v), 10), err
	case field.TypeUint64:
		v, err := r.GetUint64(id)
		return strconv.FormatUint(v, 10), err
	case field.TypeInt64:
		v, err := r.GetInt64(id)
		return strconv.FormatInt(v, 10), err
	case field.TypeFloat:
		v, err := r.GetFloat32(id)
		return strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case field.TypeDouble:
		v, err := r.GetFloat64(id)
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case field.TypeChar:
		v, err := r.GetUint8(id)
		return string(rune(v)), err
	case field.TypeIPAddr:
		v, err := r.GetIPAddr(id)
		return v.String(), err
	case field.TypeMACAddr:
		v, err := r.GetMACAddr(id)
		return v.String(), err
	case field.TypeTime:
		v, err := r.GetTime(id)
		return v.String(), err
	default:
		return "", errs.Errorf(errs.CallerContract, "record.emitScalar", "unsupported scalar type %s", typ)
	}
}

func (r *Record) emitArray(id field.ID, typ field.Type) (string, error) {
	n, err := r.ArrayLen(id)
	if err != nil {
		return "", err
	}
	elems := make([]string, n)
	for i := 0; i < n; i++ {
		s, err := r.emitArrayElem(id, typ, i)
		if err != nil {
			return "", err
		}
		elems[i] = s
	}
	return "[" + strings.Join(elems, arrayElemSep) + "]", nil
}

func (r *Record) emitArrayElem(id field.ID, typ field.Type, idx int) (string, error) {
	payload, err := r.GetVarPtr(id)
	if err != nil {
		return "", err
	}
	elemSize := typ.ElementSize()
	b := payload[idx*elemSize : (idx+1)*elemSize]
	return scalarBytesToString(typ, b)
}

// ParseField parses text into a field's value and stores it via the
// appropriate fixed or variable setter, the inverse of EmitField, per
// spec.md §4.3.
func (r *Record) ParseField(id field.ID, text string) error {
	typ, ok := r.tpl.Registry().TypeOf(id)
	if !ok {
		return errs.Errorf(errs.CallerContract, "record.parseField", "field id %d not in template", id)
	}
	if typ.IsArray() {
		return r.parseArray(id, typ, text)
	}
	switch typ {
	case field.TypeString:
		s, err := unquoteString(text)
		if err != nil {
			return err
		}
		return r.SetVar(id, []byte(s))
	case field.TypeBytes:
		b, err := hex.DecodeString(text)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseField", err)
		}
		return r.SetVar(id, b)
	default:
		return r.parseScalar(id, typ, text)
	}
}

func (r *Record) parseScalar(id field.ID, typ field.Type, text string) error {
	switch typ {
	case field.TypeUint8:
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetUint8(id, uint8(v))
	case field.TypeInt8:
		v, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetInt8(id, int8(v))
	case field.TypeUint16:
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetUint16(id, uint16(v))
	case field.TypeInt16:
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetInt16(id, int16(v))
	case field.TypeUint32:
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetUint32(id, uint32(v))
	case field.TypeInt32:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetInt32(id, int32(v))
	case field.TypeUint64:
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetUint64(id, v)
	case field.TypeInt64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetInt64(id, v)
	case field.TypeFloat:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetFloat32(id, float32(v))
	case field.TypeDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetFloat64(id, v)
	case field.TypeChar:
		if len(text) != 1 {
			return errs.Errorf(errs.CallerContract, "record.parseScalar", "char field expects exactly one byte, got %q", text)
		}
		return r.SetUint8(id, text[0])
	case field.TypeIPAddr:
		v, err := field.ParseIPAddr(text)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetIPAddr(id, v)
	case field.TypeMACAddr:
		v, err := field.ParseMACAddr(text)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetMACAddr(id, v)
	case field.TypeTime:
		v, err := field.ParseTimestamp(text)
		if err != nil {
			return errs.New(errs.CallerContract, "record.parseScalar", err)
		}
		return r.SetTime(id, v)
	default:
		return errs.Errorf(errs.CallerContract, "record.parseScalar", "unsupported scalar type %s", typ)
	}
}

func (r *Record) parseArray(id field.ID, typ field.Type, text string) error {
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	var elems []string
	if text != "" {
		elems = strings.Split(text, arrayElemSep)
	}
	elemSize := typ.ElementSize()
	out := make([]byte, len(elems)*elemSize)
	for i, e := range elems {
		b, err := stringToScalarBytes(typ, strings.TrimSpace(e))
		if err != nil {
			return err
		}
		copy(out[i*elemSize:(i+1)*elemSize], b)
	}
	return r.SetVar(id, out)
}

// EmitRow renders every field of r as a single comma-separated text row,
// in canonical (template) order, per spec.md §4.3's text conversion.
func (r *Record) EmitRow() (string, error) {
	ids := r.Iter()
	parts := make([]string, len(ids))
	for i, id := range ids {
		s, err := r.EmitField(id)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ","), nil
}

// ParseRow parses a row produced by EmitRow back into rec, which must
// already be allocated against the template whose fields the row's
// values correspond to, in canonical order.
func ParseRow(rec *Record, row string) error {
	ids := rec.Iter()
	cells := splitRow(row)
	if len(cells) != len(ids) {
		return errs.Errorf(errs.CallerContract, "record.parseRow", "row has %d cells, template has %d fields", len(cells), len(ids))
	}
	for i, id := range ids {
		if err := rec.ParseField(id, cells[i]); err != nil {
			return err
		}
	}
	return nil
}

// splitRow splits a text row on top-level commas, treating commas inside
// a quoted string or an array's brackets as non-separators.
func splitRow(row string) []string {
	var cells []string
	var cur strings.Builder
	inQuotes := false
	depth := 0
	for i := 0; i < len(row); i++ {
		c := row[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case inQuotes:
			cur.WriteByte(c)
		case c == '[':
			depth++
			cur.WriteByte(c)
		case c == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	cells = append(cells, cur.String())
	return cells
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' {
			b.WriteString(`""`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func unquoteString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", errs.Errorf(errs.CallerContract, "record.unquoteString", "malformed quoted string %q", s)
	}
	inner := s[1 : len(s)-1]
	return strings.ReplaceAll(inner, `""`, `"`), nil
}
