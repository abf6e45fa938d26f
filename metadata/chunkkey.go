package metadata

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/zarrgo/zarrv3/zarrerr"
)

// ChunkKeyEncoding is the tagged union over chunk-key schemes (spec §6):
// "default" (keys like c/0/1/2, scalar "c") or "v2" (0.1.2, scalar "0").
type ChunkKeyEncoding interface {
	EncodeChunkKey(coords []int) string
	DecodeChunkKey(key string) ([]int, error)
	Name() string
	Separator() string
}

type DefaultChunkKeyEncoding struct {
	Sep string
}

func (e DefaultChunkKeyEncoding) Name() string      { return "default" }
func (e DefaultChunkKeyEncoding) Separator() string { return e.Sep }

func (e DefaultChunkKeyEncoding) EncodeChunkKey(coords []int) string {
	if len(coords) == 0 {
		return "c"
	}
	var sb strings.Builder
	sb.WriteString("c")
	for _, c := range coords {
		sb.WriteString(e.Sep)
		sb.WriteString(strconv.Itoa(c))
	}
	return sb.String()
}

func (e DefaultChunkKeyEncoding) DecodeChunkKey(key string) ([]int, error) {
	if key == "c" {
		return []int{}, nil
	}
	if !strings.HasPrefix(key, "c"+e.Sep) {
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeChunkKey", "malformed default chunk key %q", key)
	}
	return parseCoords(strings.Split(key[len("c"+e.Sep):], e.Sep))
}

type V2ChunkKeyEncoding struct {
	Sep string
}

func (e V2ChunkKeyEncoding) Name() string      { return "v2" }
func (e V2ChunkKeyEncoding) Separator() string { return e.Sep }

func (e V2ChunkKeyEncoding) EncodeChunkKey(coords []int) string {
	if len(coords) == 0 {
		return "0"
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, e.Sep)
}

func (e V2ChunkKeyEncoding) DecodeChunkKey(key string) ([]int, error) {
	if key == "0" {
		return []int{}, nil
	}
	return parseCoords(strings.Split(key, e.Sep))
}

func parseCoords(parts []string) ([]int, error) {
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, zarrerr.New(zarrerr.InvalidMetadata, "parseCoords", err)
		}
		out[i] = n
	}
	return out, nil
}

type taggedChunkKeyEncoding struct {
	Name          string `json:"name"`
	Configuration struct {
		Separator string `json:"separator"`
	} `json:"configuration"`
}

func DecodeChunkKeyEncoding(raw []byte) (ChunkKeyEncoding, error) {
	var t taggedChunkKeyEncoding
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, zarrerr.New(zarrerr.InvalidMetadata, "DecodeChunkKeyEncoding", err)
	}
	switch t.Name {
	case "default":
		sep := t.Configuration.Separator
		if sep == "" {
			sep = "/"
		}
		return DefaultChunkKeyEncoding{Sep: sep}, nil
	case "v2":
		sep := t.Configuration.Separator
		if sep == "" {
			sep = "."
		}
		return V2ChunkKeyEncoding{Sep: sep}, nil
	default:
		return nil, zarrerr.Newf(zarrerr.InvalidMetadata, "DecodeChunkKeyEncoding", "unknown chunk_key_encoding name %q", t.Name)
	}
}

func EncodeChunkKeyEncoding(e ChunkKeyEncoding) taggedChunkKeyEncoding {
	t := taggedChunkKeyEncoding{Name: e.Name()}
	t.Configuration.Separator = e.Separator()
	return t
}
