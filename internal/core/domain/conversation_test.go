package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Validate(t *testing.T) {
	ok := Message{UserID: "u", SessionID: "s", Role: RoleUser, Content: "hi"}
	assert.NoError(t, ok.Validate())

	noUser := ok
	noUser.UserID = "  "
	assert.ErrorIs(t, noUser.Validate(), ErrInvalidInput)

	noSession := ok
	noSession.SessionID = ""
	assert.ErrorIs(t, noSession.Validate(), ErrInvalidInput)

	badRole := ok
	badRole.Role = "system"
	assert.ErrorIs(t, badRole.Validate(), ErrInvalidInput)
}

func TestTurns(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "a"},
	}

	turns := Turns(msgs)

	assert.Equal(t, []Turn{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}}, turns)
}

func TestQueryFilter_Matches(t *testing.T) {
	c := Chunk{Source: "a.txt", EmbeddingModel: "m1"}

	assert.True(t, QueryFilter{}.Matches(c))
	assert.True(t, QueryFilter{}.IsEmpty())
	assert.True(t, QueryFilter{EmbeddingModel: "m1"}.Matches(c))
	assert.False(t, QueryFilter{EmbeddingModel: "m2"}.Matches(c))
	assert.False(t, QueryFilter{Source: "b.txt"}.Matches(c))
}

func TestRetrievalResult_Texts(t *testing.T) {
	r := RetrievalResult{
		{Score: 0.9, Chunk: Chunk{Text: "first"}},
		{Score: 0.5, Chunk: Chunk{Text: "second"}},
	}

	assert.Equal(t, []string{"first", "second"}, r.Texts())
}
