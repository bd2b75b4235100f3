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

// Package field implements the process-wide Field Registry (FR): the
// mapping from field name to numeric id, element type, and element size.
package field

import "fmt"

// Type is a tagged enumeration of every element type a field can hold,
// mirroring original_source/unirec/unirec.h's ur_field_type_t plus the
// homogeneous array variants and MAC/bytes types spec.md requires.
type Type uint8

const (
	TypeUint8 Type = iota
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint64
	TypeInt64
	TypeFloat
	TypeDouble
	TypeChar
	TypeIPAddr
	TypeMACAddr
	TypeTime
	TypeBytes  // variable-length, element size 1
	TypeString // variable-length, element size 1

	TypeUint8Array
	TypeInt8Array
	TypeUint16Array
	TypeInt16Array
	TypeUint32Array
	TypeInt32Array
	TypeUint64Array
	TypeInt64Array
	TypeFloatArray
	TypeDoubleArray
	TypeCharArray
	TypeIPAddrArray
	TypeMACAddrArray
	TypeTimeArray
)

// typeNames and typeSizes are parallel to the Type enum above. A positive
// size is the fixed element size in bytes for a scalar fixed-size field; a
// negative size (stored negated in the table below) marks a
// variable/array type whose per-element size is its magnitude.
var typeInfo = [...]struct {
	name string
	size int
}{
	TypeUint8:   {"uint8", 1},
	TypeInt8:    {"int8", 1},
	TypeUint16:  {"uint16", 2},
	TypeInt16:   {"int16", 2},
	TypeUint32:  {"uint32", 4},
	TypeInt32:   {"int32", 4},
	TypeUint64:  {"uint64", 8},
	TypeInt64:   {"int64", 8},
	TypeFloat:   {"float", 4},
	TypeDouble:  {"double", 8},
	TypeChar:    {"char", 1},
	TypeIPAddr:  {"ipaddr", 16},
	TypeMACAddr: {"macaddr", 6},
	TypeTime:    {"time", 8},
	TypeBytes:   {"bytes", -1},
	TypeString:  {"string", -1},

	TypeUint8Array:   {"uint8*", -1},
	TypeInt8Array:    {"int8*", -1},
	TypeUint16Array:  {"uint16*", -2},
	TypeInt16Array:   {"int16*", -2},
	TypeUint32Array:  {"uint32*", -4},
	TypeInt32Array:   {"int32*", -4},
	TypeUint64Array:  {"uint64*", -8},
	TypeInt64Array:   {"int64*", -8},
	TypeFloatArray:   {"float*", -4},
	TypeDoubleArray:  {"double*", -8},
	TypeCharArray:    {"char*", -1},
	TypeIPAddrArray:  {"ipaddr*", -16},
	TypeMACAddrArray: {"macaddr*", -6},
	TypeTimeArray:    {"time*", -8},
}

// String returns the canonical spec-string type token (e.g. "uint32",
// "string", "uint32*"), per the grammar in spec.md §6.
func (t Type) String() string {
	if int(t) >= len(typeInfo) {
		return fmt.Sprintf("Type(%d)", t)
	}
	return typeInfo[t].name
}

// Size returns the element size associated with t: positive for fixed
// types, negative for variable/array types (the magnitude is the
// per-element size), per spec.md §3.
func (t Type) Size() int {
	if int(t) >= len(typeInfo) {
		return 0
	}
	return typeInfo[t].size
}

// IsVariable reports whether t occupies a variable-length tail in a
// record (string, bytes, or any array type).
func (t Type) IsVariable() bool {
	return t.Size() < 0
}

// IsArray reports whether t is a homogeneous array of a fixed-size
// element (as opposed to string/bytes, which are "arrays" of bytes but
// are addressed as a single opaque/printable blob, not element-wise).
func (t Type) IsArray() bool {
	switch t {
	case TypeUint8Array, TypeInt8Array, TypeUint16Array, TypeInt16Array,
		TypeUint32Array, TypeInt32Array, TypeUint64Array, TypeInt64Array,
		TypeFloatArray, TypeDoubleArray, TypeCharArray, TypeIPAddrArray,
		TypeMACAddrArray, TypeTimeArray:
		return true
	default:
		return false
	}
}

// ElementSize returns the byte size of one element of t: for fixed types
// this is Size(); for variable/array types this is -Size() (the per
// -element size encoded as the negative sentinel).
func (t Type) ElementSize() int {
	size := t.Size()
	if size < 0 {
		return -size
	}
	return size
}

// typeByName is built from typeInfo at package init for spec-string parsing.
var typeByName map[string]Type

func init() {
	typeByName = make(map[string]Type, len(typeInfo))
	for i, info := range typeInfo {
		typeByName[info.name] = Type(i)
	}
}

// ParseType resolves a spec-string type token (e.g. "uint32", "ipaddr*")
// to a Type. It returns an error matching the grammar in spec.md §6.
func ParseType(s string) (Type, error) {
	t, ok := typeByName[s]
	if !ok {
		return 0, fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}
