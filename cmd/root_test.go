package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"import", "lists", "delete", "cleanup", "enrich", "export", "runs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "dataforge", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestImportCommand_Flags(t *testing.T) {
	require.NotNil(t, importCmd.Flags().Lookup("file"))
	require.NotNil(t, importCmd.Flags().Lookup("name"))
}

func TestEnrichCommand_Flags(t *testing.T) {
	require.NotNil(t, enrichCmd.Flags().Lookup("list"))

	reset := enrichCmd.Flags().Lookup("reset")
	require.NotNil(t, reset)
	assert.Equal(t, "false", reset.DefValue)

	format := enrichCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	require.NotNil(t, exportCmd.Flags().Lookup("out"))
	skip := exportCmd.Flags().Lookup("skip-duplicates")
	require.NotNil(t, skip)
	assert.Equal(t, "false", skip.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasShow(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["show"])
}
