package metadata

import (
	"encoding/json"

	"github.com/zarrgo/zarrv3/ndarray"
	"github.com/zarrgo/zarrv3/zarrerr"
)

// ZarrJSON is the metadata object's key name, relative to an array's path.
const ZarrJSON = "zarr.json"

// RegularChunkGrid is the only chunk_grid.name this implementation
// supports ("regular" -- a single fixed chunk shape for the whole array).
type RegularChunkGrid struct {
	ChunkShape []int
}

type taggedChunkGrid struct {
	Name          string `json:"name"`
	Configuration struct {
		ChunkShape []int `json:"chunk_shape"`
	} `json:"configuration"`
}

func decodeChunkGrid(raw []byte) (RegularChunkGrid, error) {
	var t taggedChunkGrid
	if err := json.Unmarshal(raw, &t); err != nil {
		return RegularChunkGrid{}, zarrerr.New(zarrerr.InvalidMetadata, "decodeChunkGrid", err)
	}
	if t.Name != "regular" {
		return RegularChunkGrid{}, zarrerr.Newf(zarrerr.InvalidMetadata, "decodeChunkGrid", "unsupported chunk_grid name %q", t.Name)
	}
	return RegularChunkGrid{ChunkShape: t.Configuration.ChunkShape}, nil
}

func encodeChunkGrid(g RegularChunkGrid) taggedChunkGrid {
	t := taggedChunkGrid{Name: "regular"}
	t.Configuration.ChunkShape = g.ChunkShape
	return t
}

// ArrayMetadata is the full, persisted zarr.json document (spec §3).
type ArrayMetadata struct {
	ZarrFormat        int
	NodeType          string
	Shape             []int
	DataType          DataType
	ChunkGrid         RegularChunkGrid
	ChunkKeyEncoding  ChunkKeyEncoding
	FillValue         any
	Codecs            []Codec
	Attributes        map[string]any
	DimensionNames    []string // nil if absent
}

// onWireMetadata mirrors the JSON document's literal shape; ArrayMetadata
// is decoded/encoded through it so the tagged unions get their dedicated
// dispatch logic.
type onWireMetadata struct {
	ZarrFormat       int             `json:"zarr_format"`
	NodeType         string          `json:"node_type"`
	Shape            []int           `json:"shape"`
	DataType         DataType        `json:"data_type"`
	ChunkGrid        json.RawMessage `json:"chunk_grid"`
	ChunkKeyEncoding json.RawMessage `json:"chunk_key_encoding"`
	FillValue        any             `json:"fill_value"`
	Codecs           json.RawMessage `json:"codecs"`
	Attributes       map[string]any  `json:"attributes"`
	DimensionNames   []string        `json:"dimension_names"`
}

// DecodeArrayMetadata structurally decodes a zarr.json document, dispatching
// every tagged union by its name field (spec §4.7). Unknown tags are a
// hard InvalidMetadata error.
func DecodeArrayMetadata(data []byte) (*ArrayMetadata, error) {
	var w onWireMetadata
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeArrayMetadata", err)
	}
	if w.ZarrFormat != 3 {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeArrayMetadata", "unsupported zarr_format %d, expected 3", w.ZarrFormat)
	}
	if w.NodeType != "array" {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeArrayMetadata", "unsupported node_type %q, expected \"array\"", w.NodeType)
	}

	grid, err := decodeChunkGrid(w.ChunkGrid)
	if err != nil {
		return nil, err
	}
	if len(grid.ChunkShape) != len(w.Shape) {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeArrayMetadata",
			"chunk_shape rank %d != shape rank %d", len(grid.ChunkShape), len(w.Shape))
	}
	for i, c := range grid.ChunkShape {
		if c < 1 {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeArrayMetadata", "chunk_shape[%d]=%d must be >= 1", i, c)
		}
	}
	for i, s := range w.Shape {
		if s < 0 {
			return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeArrayMetadata", "shape[%d]=%d must be >= 0", i, s)
		}
	}

	cke, err := DecodeChunkKeyEncoding(w.ChunkKeyEncoding)
	if err != nil {
		return nil, err
	}

	codecs, err := DecodeCodecs(w.Codecs)
	if err != nil {
		return nil, err
	}
	if err := ValidateCodecs(codecs); err != nil {
		return nil, err
	}

	attrs := w.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}

	return &ArrayMetadata{
		ZarrFormat:       w.ZarrFormat,
		NodeType:         w.NodeType,
		Shape:            w.Shape,
		DataType:         w.DataType,
		ChunkGrid:        grid,
		ChunkKeyEncoding: cke,
		FillValue:        w.FillValue,
		Codecs:           codecs,
		Attributes:       attrs,
		DimensionNames:   w.DimensionNames,
	}, nil
}

// Encode re-serializes the metadata as zarr.json bytes.
func (m *ArrayMetadata) Encode() ([]byte, error) {
	ckeRaw, err := json.Marshal(EncodeChunkKeyEncoding(m.ChunkKeyEncoding))
	if err != nil {
		return nil, err
	}
	gridRaw, err := json.Marshal(encodeChunkGrid(m.ChunkGrid))
	if err != nil {
		return nil, err
	}
	codecsRaw, err := EncodeCodecs(m.Codecs)
	if err != nil {
		return nil, err
	}

	w := onWireMetadata{
		ZarrFormat:       3,
		NodeType:         "array",
		Shape:            m.Shape,
		DataType:         m.DataType,
		ChunkGrid:        gridRaw,
		ChunkKeyEncoding: ckeRaw,
		FillValue:        m.FillValue,
		Codecs:           codecsRaw,
		Attributes:       m.Attributes,
		DimensionNames:   m.DimensionNames,
	}
	return json.MarshalIndent(w, "", "  ")
}

// CoreArrayMetadata is the derived view the codec pipeline and indexer
// operate on (spec §3 "Core runtime view").
type CoreArrayMetadata struct {
	Shape      []int
	ChunkShape []int
	DataType   DataType
	FillValue  []byte // ItemSize()-width, little-endian
	Order      ndarray.Order
}

// Core derives a CoreArrayMetadata, resolving FillValue into its raw-byte
// form and Order into the runtime preference (order defaults to "C").
func (m *ArrayMetadata) Core(order ndarray.Order) (CoreArrayMetadata, error) {
	fv, err := FillValueBytes(m.DataType, m.FillValue)
	if err != nil {
		return CoreArrayMetadata{}, err
	}
	return CoreArrayMetadata{
		Shape:      m.Shape,
		ChunkShape: m.ChunkGrid.ChunkShape,
		DataType:   m.DataType,
		FillValue:  fv,
		Order:      order,
	}, nil
}
