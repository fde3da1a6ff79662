package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "seed", "import-students", "create-admin", "version"}, names)
}

func TestImportStudentsNeedsExactlyOneSource(t *testing.T) {
	for _, args := range [][]string{
		{"import-students"},
		{"import-students", "--file", "roster.xlsx", "--sheet", "abc"},
	} {
		cmd := rootCmd()
		cmd.SetArgs(args)
		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one of --file or --sheet")
	}
}

func TestCreateAdminNeedsPassword(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")

	cmd := rootCmd()
	cmd.SetArgs([]string{"create-admin", "--username", "convener"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
}
