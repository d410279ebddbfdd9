package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPCmd_HasServe(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"mcp", "serve"})

	require.NoError(t, err)
	assert.Equal(t, mcpServeCmd, cmd)
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestMCPServe_HTTPStopsOnCancel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetArgs([]string{"mcp", "serve", "--port", "18765"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)

	assert.NoError(t, err)
}

func TestMCPServe_MissingServices(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	app.Chat = nil

	_, _, err := execute([]string{"mcp", "serve"}, "")

	assert.Error(t, err)
}
