package qdrant

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func toPointStruct(p domain.IndexedPoint) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Uuid{Uuid: p.ID},
		},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{Data: p.Vector},
			},
		},
		Payload: map[string]*qdrant.Value{
			domain.PayloadText:           stringValue(p.Payload.Text),
			domain.PayloadSource:         stringValue(p.Payload.Source),
			domain.PayloadChunkIndex:     {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(p.Payload.Index)}},
			domain.PayloadEmbeddingModel: stringValue(p.Payload.EmbeddingModel),
		},
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func fromPayload(payload map[string]*qdrant.Value) domain.Chunk {
	return domain.Chunk{
		Text:           payload[domain.PayloadText].GetStringValue(),
		Source:         payload[domain.PayloadSource].GetStringValue(),
		Index:          int(payload[domain.PayloadChunkIndex].GetIntegerValue()),
		EmbeddingModel: payload[domain.PayloadEmbeddingModel].GetStringValue(),
	}
}

// toFilter turns non-empty filter fields into keyword match conditions.
func toFilter(f domain.QueryFilter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	var must []*qdrant.Condition
	add := func(key, value string) {
		if value == "" {
			return
		}
		must = append(must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: key,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: value},
					},
				},
			},
		})
	}
	add(domain.PayloadEmbeddingModel, f.EmbeddingModel)
	add(domain.PayloadSource, f.Source)

	return &qdrant.Filter{Must: must}
}
