package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType names the element type of a grid buffer. Values match the wire
// "dtype" strings.
type DType string

const (
	Uint8  DType = "uint8"
	Int8   DType = "int8"
	Uint16 DType = "uint16"
	Int16  DType = "int16"
	Uint32 DType = "uint32"
	Int32  DType = "int32"
	Uint64 DType = "uint64"
	Int64  DType = "int64"
)

// MaxWidth is the widest element in bytes.
const MaxWidth = 8

// DTypes lists every supported element type.
func DTypes() []DType {
	return []DType{Uint8, Int8, Uint16, Int16, Uint32, Int32, Uint64, Int64}
}

// ParseDType resolves a wire dtype name.
func ParseDType(s string) (DType, error) {
	d := DType(s)
	if d.Width() == 0 {
		return "", fmt.Errorf("%w: unsupported dtype %q", ErrInvalidInput, s)
	}
	return d, nil
}

// Width returns the element width in bytes, or 0 for an unsupported type.
func (d DType) Width() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	case Uint64, Int64:
		return 8
	}
	return 0
}

func (d DType) String() string { return string(d) }

// get decodes the little-endian element at b.
func (d DType) get(b []byte) int64 {
	switch d {
	case Uint8:
		return int64(b[0])
	case Int8:
		return int64(int8(b[0]))
	case Uint16:
		return int64(binary.LittleEndian.Uint16(b))
	case Int16:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case Uint32:
		return int64(binary.LittleEndian.Uint32(b))
	case Int32:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case Uint64:
		v := binary.LittleEndian.Uint64(b)
		if v > math.MaxInt64 {
			// never a valid cell state
			return -1
		}
		return int64(v)
	case Int64:
		return int64(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// put encodes v little-endian into b. Range checks are the caller's job.
func (d DType) put(b []byte, v int64) {
	switch d {
	case Uint8, Int8:
		b[0] = byte(v)
	case Uint16, Int16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case Uint32, Int32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case Uint64, Int64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}

// fits reports whether v is representable in d.
func (d DType) fits(v int64) bool {
	switch d {
	case Uint8:
		return v >= 0 && v <= math.MaxUint8
	case Int8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case Uint16:
		return v >= 0 && v <= math.MaxUint16
	case Int16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case Uint32:
		return v >= 0 && v <= math.MaxUint32
	case Int32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	case Uint64:
		return v >= 0
	case Int64:
		return true
	}
	return false
}
