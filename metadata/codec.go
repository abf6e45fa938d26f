package metadata

import (
	"encoding/json"

	"github.com/zarrgo/zarrv3/zarrerr"
)

// Codec is the tagged-union member for one entry of an array's codecs
// list (spec §3 "Codec metadata"). Concrete types below cover the five
// variants spec.md names, plus an added zstd compressor (see
// SPEC_FULL.md §4.4).
type Codec interface {
	CodecName() string
}

// TransposeOrder is either "C", "F", or an explicit axis permutation.
type TransposeOrder struct {
	Named       string // "C" or "F"; empty if Permutation is set
	Permutation []int
}

func (o TransposeOrder) MarshalJSON() ([]byte, error) {
	if o.Permutation != nil {
		return json.Marshal(o.Permutation)
	}
	return json.Marshal(o.Named)
}

func (o *TransposeOrder) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Named = s
		o.Permutation = nil
		return nil
	}
	var perm []int
	if err := json.Unmarshal(b, &perm); err != nil {
		return zarrerr.New(zarrerr.InvalidMetadata, "TransposeOrder.UnmarshalJSON", err)
	}
	o.Permutation = perm
	o.Named = ""
	return nil
}

type TransposeCodec struct {
	Order TransposeOrder `json:"order"`
}

func (TransposeCodec) CodecName() string { return "transpose" }

type EndianCodec struct {
	Endian string `json:"endian"` // "little" or "big"
}

func (EndianCodec) CodecName() string { return "endian" }

type GzipCodec struct {
	Level int `json:"level"`
}

func (GzipCodec) CodecName() string { return "gzip" }

// ZstdCodec is not in spec.md's variant list; carried forward from the
// teacher's zarr/dataset.go, which already decompresses a "zstd"
// compressor id via klauspost/compress/zstd (see SPEC_FULL.md §4.4).
type ZstdCodec struct {
	Level int `json:"level"`
}

func (ZstdCodec) CodecName() string { return "zstd" }

type BloscCodec struct {
	Cname     string `json:"cname"`
	Clevel    int    `json:"clevel"`
	Shuffle   int    `json:"shuffle"`
	Typesize  int    `json:"typesize"`
	Blocksize int    `json:"blocksize,omitempty"`
}

func (BloscCodec) CodecName() string { return "blosc" }

// ShardingIndexedCodec is the two-level sharding codec's metadata. Its
// Codecs field is a boxed recursive use of the same Codec union (spec §9
// "cyclic reference in metadata").
type ShardingIndexedCodec struct {
	ChunkShape []int   `json:"chunk_shape"`
	Codecs     []Codec `json:"codecs"`
}

func (ShardingIndexedCodec) CodecName() string { return "sharding_indexed" }

// taggedCodec is the on-wire {name, configuration} envelope.
type taggedCodec struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration"`
}

// DecodeCodec structurally decodes one {name, configuration} object,
// dispatching on name (spec §4.7). Unknown names are a hard error.
func DecodeCodec(raw json.RawMessage) (Codec, error) {
	var tc taggedCodec
	if err := json.Unmarshal(raw, &tc); err != nil {
		return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
	}

	switch tc.Name {
	case "transpose":
		var c TransposeCodec
		if err := json.Unmarshal(tc.Configuration, &c); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		return c, nil
	case "endian":
		var c EndianCodec
		if err := json.Unmarshal(tc.Configuration, &c); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		return c, nil
	case "gzip":
		var c GzipCodec
		if err := json.Unmarshal(tc.Configuration, &c); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		return c, nil
	case "zstd":
		var c ZstdCodec
		if err := json.Unmarshal(tc.Configuration, &c); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		return c, nil
	case "blosc":
		var c BloscCodec
		if err := json.Unmarshal(tc.Configuration, &c); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		return c, nil
	case "sharding_indexed":
		var raw struct {
			ChunkShape []int             `json:"chunk_shape"`
			Codecs     []json.RawMessage `json:"codecs"`
		}
		if err := json.Unmarshal(tc.Configuration, &raw); err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodec", err)
		}
		inner := make([]Codec, len(raw.Codecs))
		for i, r := range raw.Codecs {
			c, err := DecodeCodec(r)
			if err != nil {
				return nil, err
			}
			inner[i] = c
		}
		return ShardingIndexedCodec{ChunkShape: raw.ChunkShape, Codecs: inner}, nil
	default:
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeCodec", "unknown codec name %q", tc.Name)
	}
}

// DecodeCodecs decodes a JSON array of tagged codec objects.
func DecodeCodecs(raw json.RawMessage) ([]Codec, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeCodecs", err)
	}
	out := make([]Codec, len(items))
	for i, item := range items {
		c, err := DecodeCodec(item)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// EncodeCodec produces the {name, configuration} envelope for one codec.
func EncodeCodec(c Codec) (json.RawMessage, error) {
	switch c.CodecName() {
	case "sharding_indexed":
		sc := c.(ShardingIndexedCodec)
		encodedInner := make([]json.RawMessage, len(sc.Codecs))
		for i, inner := range sc.Codecs {
			raw, err := EncodeCodec(inner)
			if err != nil {
				return nil, err
			}
			encodedInner[i] = raw
		}
		config, err := json.Marshal(struct {
			ChunkShape []int             `json:"chunk_shape"`
			Codecs     []json.RawMessage `json:"codecs"`
		}{sc.ChunkShape, encodedInner})
		if err != nil {
			return nil, err
		}
		return marshalTagged(c.CodecName(), config)
	default:
		config, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		return marshalTagged(c.CodecName(), config)
	}
}

func marshalTagged(name string, config json.RawMessage) (json.RawMessage, error) {
	return json.Marshal(taggedCodec{Name: name, Configuration: config})
}

// EncodeCodecs encodes an ordered codec list as a JSON array.
func EncodeCodecs(codecs []Codec) (json.RawMessage, error) {
	items := make([]json.RawMessage, len(codecs))
	for i, c := range codecs {
		raw, err := EncodeCodec(c)
		if err != nil {
			return nil, err
		}
		items[i] = raw
	}
	return json.Marshal(items)
}

// HasSharding reports whether codecs is exactly [sharding_indexed], the
// only configuration spec §3's invariant ("len(codecs with
// name=sharding_indexed) <= 1, and if present it is the only outer codec")
// allows for a sharded chunk.
func HasSharding(codecs []Codec) (ShardingIndexedCodec, bool) {
	if len(codecs) == 1 {
		if sc, ok := codecs[0].(ShardingIndexedCodec); ok {
			return sc, true
		}
	}
	return ShardingIndexedCodec{}, false
}

// ValidateCodecs enforces the "at most one sharding_indexed, and only as
// the sole outer codec" invariant.
func ValidateCodecs(codecs []Codec) error {
	count := 0
	for i, c := range codecs {
		if c.CodecName() == "sharding_indexed" {
			count++
			if len(codecs) != 1 || i != 0 {
				return zarrerr.Newf(zarrerr.UnsupportedFeature, "ValidateCodecs",
					"sharding_indexed must be the only outer codec")
			}
		}
	}
	if count > 1 {
		return zarrerr.Newf(zarrerr.UnsupportedFeature, "ValidateCodecs",
			"at most one sharding_indexed codec is allowed")
	}
	return nil
}
