package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

func TestStatusCmd_Prints(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"status"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "Vector index")
	assert.Contains(t, out, "Points: 5")
	assert.Contains(t, out, "Dimension: 3")
	assert.Contains(t, out, "Documents (2)")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "Vector backend: qdrant")
}

func TestStatusCmd_NoCollection(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.index.StatusFunc = func(context.Context) (*domain.IndexStatus, error) {
		return &domain.IndexStatus{}, nil
	}

	out, _, err := execute([]string{"status"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "Collections: (none)")
	assert.Contains(t, out, "does not exist yet")
}

func TestStatusCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"status", "--json"}, "")
	require.NoError(t, err)

	var got statusJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"documents"}, got.Collections)
	require.NotNil(t, got.Active)
	assert.Equal(t, int64(5), got.Active.Points)
	assert.Equal(t, []string{"a.txt", "b.txt"}, got.Documents)
	assert.Empty(t, got.Checks)
}

func TestStatusCmd_PingOK(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	app.Checks = []HealthCheck{
		{Name: "embedding test", Ping: func(context.Context) error { return nil }},
	}

	out, _, err := execute([]string{"status", "--ping"}, "")

	require.NoError(t, err)
	assert.Contains(t, out, "Health")
	assert.Contains(t, out, "embedding test")
}

func TestStatusCmd_PingFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	app.Checks = []HealthCheck{
		{Name: "completion test", Ping: func(context.Context) error { return domain.ErrAuth }},
	}

	out, _, err := execute([]string{"status", "--ping", "--json"}, "")

	require.Error(t, err)
	var got statusJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Checks, 1)
	assert.False(t, got.Checks[0].OK)
	assert.Contains(t, got.Checks[0].Error, "authentication")
}

func TestStatusCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.index.StatusFunc = func(context.Context) (*domain.IndexStatus, error) {
		return nil, errors.New("unreachable")
	}

	_, _, err := execute([]string{"status"}, "")

	assert.ErrorContains(t, err, "unreachable")
}

func TestClearCmd_Confirmed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"clear"}, "y\n")

	require.NoError(t, err)
	assert.Equal(t, 1, current.index.clearCalls)
	assert.Contains(t, out, `Deleted collection "documents".`)
}

func TestClearCmd_Declined(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute([]string{"clear"}, "n\n")

	require.NoError(t, err)
	assert.Zero(t, current.index.clearCalls)
	assert.Contains(t, out, "Aborted.")
}

func TestClearCmd_Yes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute([]string{"clear", "--yes"}, "")

	require.NoError(t, err)
	assert.Equal(t, 1, current.index.clearCalls)
}

func TestClearCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	current.index.ClearFunc = func(context.Context) error { return domain.ErrVectorIndex }

	_, _, err := execute([]string{"clear", "-y"}, "")

	assert.ErrorIs(t, err, domain.ErrVectorIndex)
}
