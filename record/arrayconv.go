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
	"math"
	"strconv"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
)

// scalarBytesToString and stringToScalarBytes convert one array element's
// raw bytes to/from its text form. Array element types are not
// individually addressable field ids, so these operate directly on
// element-sized byte slices rather than going through the Get*/Set*
// accessors used for standalone scalar fields.

func scalarBytesToString(typ field.Type, b []byte) (string, error) {
	switch typ {
	case field.TypeUint8Array:
		return strconv.FormatUint(uint64(b[0]), 10), nil
	case field.TypeInt8Array:
		return strconv.FormatInt(int64(int8(b[0])), 10), nil
	case field.TypeCharArray:
		return string(rune(b[0])), nil
	case field.TypeUint16Array:
		return strconv.FormatUint(uint64(binary.BigEndian.Uint16(b)), 10), nil
	case field.TypeInt16Array:
		return strconv.FormatInt(int64(int16(binary.BigEndian.Uint16(b))), 10), nil
	case field.TypeUint32Array:
		return strconv.FormatUint(uint64(binary.BigEndian.Uint32(b)), 10), nil
	case field.TypeInt32Array:
		return strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(b))), 10), nil
	case field.TypeUint64Array:
		return strconv.FormatUint(binary.BigEndian.Uint64(b), 10), nil
	case field.TypeInt64Array:
		return strconv.FormatInt(int64(binary.BigEndian.Uint64(b)), 10), nil
	case field.TypeFloatArray:
		return strconv.FormatFloat(float64(math.Float32frombits(binary.BigEndian.Uint32(b))), 'g', -1, 32), nil
	case field.TypeDoubleArray:
		return strconv.FormatFloat(math.Float64frombits(binary.BigEndian.Uint64(b)), 'g', -1, 64), nil
	case field.TypeIPAddrArray:
		return field.IPAddrFromBytes16(b).String(), nil
	case field.TypeMACAddrArray:
		return field.MACAddrFromBytes6(b).String(), nil
	case field.TypeTimeArray:
		return field.Timestamp(binary.BigEndian.Uint64(b)).String(), nil
	default:
		return "", errs.Errorf(errs.CallerContract, "record.scalarBytesToString", "unsupported array element type %s", typ)
	}
}

func stringToScalarBytes(typ field.Type, s string) ([]byte, error) {
	elemSize := typ.ElementSize()
	b := make([]byte, elemSize)
	switch typ {
	case field.TypeUint8Array:
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		b[0] = uint8(v)
	case field.TypeInt8Array:
		v, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		b[0] = uint8(int8(v))
	case field.TypeCharArray:
		if len(s) != 1 {
			return nil, errs.Errorf(errs.CallerContract, "record.stringToScalarBytes", "char element expects exactly one byte, got %q", s)
		}
		b[0] = s[0]
	case field.TypeUint16Array:
		v, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint16(b, uint16(v))
	case field.TypeInt16Array:
		v, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint16(b, uint16(int16(v)))
	case field.TypeUint32Array:
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint32(b, uint32(v))
	case field.TypeInt32Array:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint32(b, uint32(int32(v)))
	case field.TypeUint64Array:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint64(b, v)
	case field.TypeInt64Array:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint64(b, uint64(v))
	case field.TypeFloatArray:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint32(b, math.Float32bits(float32(v)))
	case field.TypeDoubleArray:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint64(b, math.Float64bits(v))
	case field.TypeIPAddrArray:
		v, err := field.ParseIPAddr(s)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		field.PutIPAddr(b, v)
	case field.TypeMACAddrArray:
		v, err := field.ParseMACAddr(s)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		field.PutMACAddr(b, v)
	case field.TypeTimeArray:
		v, err := field.ParseTimestamp(s)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "record.stringToScalarBytes", err)
		}
		binary.BigEndian.PutUint64(b, uint64(v))
	default:
		return nil, errs.Errorf(errs.CallerContract, "record.stringToScalarBytes", "unsupported array element type %s", typ)
	}
	return b, nil
}
