package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// EncodeVector packs a vector as little-endian FLOAT32 bytes, the layout
// RediSearch expects for vector fields and query parameters.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// parseSearchReply reads a RESP2 FT.SEARCH reply:
// [total, key1, [field, value, ...], key2, [...], ...].
func parseSearchReply(reply any, prefix string) (domain.RetrievalResult, error) {
	values, ok := reply.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected reply type %T", reply)
	}

	result := domain.RetrievalResult{}
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key type %T", values[i])
		}
		fields, ok := values[i+1].([]any)
		if !ok {
			return nil, fmt.Errorf("unexpected fields type %T", values[i+1])
		}

		hit := domain.ScoredChunk{Chunk: domain.Chunk{ID: strings.TrimPrefix(key, prefix)}}
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			value := asString(fields[j+1])
			switch name {
			case domain.PayloadText:
				hit.Chunk.Text = value
			case domain.PayloadSource:
				hit.Chunk.Source = value
			case domain.PayloadEmbeddingModel:
				hit.Chunk.EmbeddingModel = value
			case domain.PayloadChunkIndex:
				hit.Chunk.Index, _ = strconv.Atoi(value)
			case fieldScore:
				distance, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("parsing score %q: %w", value, err)
				}
				hit.Score = 1 - distance
			}
		}
		result = append(result, hit)
	}
	return result, nil
}

// parseNumDocs extracts num_docs from a RESP2 FT.INFO reply.
func parseNumDocs(reply any) int64 {
	values, ok := reply.([]any)
	if !ok {
		return 0
	}
	for i := 0; i+1 < len(values); i += 2 {
		if key, _ := values[i].(string); key != "num_docs" {
			continue
		}
		switch n := values[i+1].(type) {
		case int64:
			return n
		case string:
			f, _ := strconv.ParseFloat(n, 64)
			return int64(f)
		}
	}
	return 0
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
