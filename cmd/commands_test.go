package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "migrate", "prune", "import"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestPruneHelpDescribesCutoff(t *testing.T) {
	assert.Contains(t, pruneCmd.Short, "ended before")
	assert.Contains(t, pruneCmd.Long, "whose end time lies before")
	assert.Contains(t, pruneCmd.Long, "without an end time are judged by their start time")
	assert.NotContains(t, pruneCmd.Long, "whose start time lies before")

	before := pruneCmd.Flags().Lookup("before")
	require.NotNil(t, before)
	assert.Equal(t, []string{"true"}, before.Annotations[cobra.BashCompOneRequiredFlag])
}
