package metadata

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/zarrgo/zarrv3/zarrerr"
)

// DataType enumerates the scalar element types spec §3 allows. It
// (de)serializes as the plain string zarr.json expects (spec §4.7: "writing
// emits the data_type enum as a plain string").
type DataType int

const (
	Bool DataType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var dataTypeNames = map[DataType]string{
	Bool: "bool", Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Float32: "float32", Float64: "float64",
}

var namesToDataType = func() map[string]DataType {
	m := make(map[string]DataType, len(dataTypeNames))
	for k, v := range dataTypeNames {
		m[v] = k
	}
	return m
}()

func (d DataType) String() string {
	if s, ok := dataTypeNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int(d))
}

// ItemSize returns the width in bytes of a single element.
func (d DataType) ItemSize() int {
	switch d {
	case Bool, Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

func ParseDataType(s string) (DataType, error) {
	d, ok := namesToDataType[s]
	if !ok {
		return 0, zarrerr.Newf(zarrerr.UnsupportedFeature, "ParseDataType", "unsupported data_type %q", s)
	}
	return d, nil
}

func (d DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DataType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FillValueBytes converts a JSON-decoded fill_value scalar (bool, float64
// from the number, or a small int) into its little-endian, width-ItemSize()
// byte representation. The on-wire host is little-endian throughout (spec
// §6); the endian codec handles the storage-order swap independently.
func FillValueBytes(dt DataType, v any) ([]byte, error) {
	buf := make([]byte, dt.ItemSize())
	switch dt {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "FillValueBytes", "fill_value %v is not a bool", v)
		}
		if b {
			buf[0] = 1
		}
		return buf, nil
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		f, ok := asFloat(v)
		if !ok {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "FillValueBytes", "fill_value %v is not numeric", v)
		}
		return encodeInt(dt, int64(f), buf)
	case Float32:
		f, ok := asFloat(v)
		if !ok {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "FillValueBytes", "fill_value %v is not numeric", v)
		}
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil
	case Float64:
		f, ok := asFloat(v)
		if !ok {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "FillValueBytes", "fill_value %v is not numeric", v)
		}
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	default:
		return nil, zarrerr.Newf(zarrerr.UnsupportedFeature, "FillValueBytes", "unsupported data_type %v", dt)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func encodeInt(dt DataType, n int64, buf []byte) ([]byte, error) {
	switch dt {
	case Int8, Uint8:
		buf[0] = byte(n)
	case Int16, Uint16:
		binary.LittleEndian.PutUint16(buf, uint16(n))
	case Int32, Uint32:
		binary.LittleEndian.PutUint32(buf, uint32(n))
	case Int64, Uint64:
		binary.LittleEndian.PutUint64(buf, uint64(n))
	}
	return buf, nil
}

// FillValueToJSON converts ItemSize()-width little-endian bytes back into a
// JSON-marshalable scalar, the inverse of FillValueBytes. Exported as part
// of the metadata surface; ArrayMetadata.Encode does not call it (it writes
// FillValue back as stored), and no other package in this module does.
func FillValueToJSON(dt DataType, buf []byte) (any, error) {
	switch dt {
	case Bool:
		return buf[0] != 0, nil
	case Int8:
		return int8(buf[0]), nil
	case Uint8:
		return buf[0], nil
	case Int16:
		return int16(binary.LittleEndian.Uint16(buf)), nil
	case Uint16:
		return binary.LittleEndian.Uint16(buf), nil
	case Int32:
		return int32(binary.LittleEndian.Uint32(buf)), nil
	case Uint32:
		return binary.LittleEndian.Uint32(buf), nil
	case Int64:
		return int64(binary.LittleEndian.Uint64(buf)), nil
	case Uint64:
		return binary.LittleEndian.Uint64(buf), nil
	case Float32:
		return math.Float32frombits(binary.LittleEndian.Uint32(buf)), nil
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
	default:
		return nil, zarrerr.Newf(zarrerr.UnsupportedFeature, "FillValueToJSON", "unsupported data_type %v", dt)
	}
}
