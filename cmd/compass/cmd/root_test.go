package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagconcierge/compass/internal/search"
)

// runCommand executes the CLI with args against an isolated data directory.
func runCommand(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("COMPASS_DATA_DIR", dataDir)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "compass version")
}

func TestRootCmd_HelpListsCommands(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, name := range []string{"serve", "rebuild", "search", "status", "demo", "loadtest", "purge"} {
		assert.Contains(t, out, name)
	}
}

func TestDemoThenSearch(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "demo", "--documents", "5", "--assets", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo corpus ready")

	out, err = runCommand(t, dataDir, "search", "getting started", "--format", "json")
	require.NoError(t, err)

	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "Getting Started with Content Indexing", results[0].Title)
}

func TestDemoIndexesSettingsEntries(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "demo", "--documents", "1", "--assets", "0")
	require.NoError(t, err)

	out, err := runCommand(t, dataDir, "search", "navigate to search", "--format", "json")
	require.NoError(t, err)

	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "Settings - Search", results[0].Title)
}

func TestStatusCmd_Idle(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Rebuild: idle")
	assert.Contains(t, out, "Entries: 0 total")
}

func TestRebuildCmd_EmptyCorpus(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "rebuild")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 0 entries")
}

func TestPurgeCmd_RequiresConfirmation(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "demo", "--documents", "2", "--assets", "0")
	require.NoError(t, err)

	out, err := runCommand(t, dataDir, "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "--yes")

	out, err = runCommand(t, dataDir, "status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Entries: 0 total", "purge without --yes must not drop the index")

	out, err = runCommand(t, dataDir, "purge", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "purged")
}

func TestLoadTestCmd_SmallCorpus(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "loadtest",
		"--type", "all", "--count", "5", "--queries", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Rebuild indexed 15 entries")
	assert.Contains(t, out, "Ran 10 queries")
}

func TestConfigInitAndShow(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "compass.yaml")

	_, err = runCommand(t, dataDir, "config", "init")
	require.Error(t, err, "a second init without --force must not overwrite")

	out, err = runCommand(t, dataDir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "batch_size: 100")
	assert.Contains(t, out, "max_results: 15")
}

func TestLoadTestCmd_RejectsUnknownType(t *testing.T) {
	_, err := runCommand(t, t.TempDir(), "loadtest", "--type", "widget", "--count", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid content type")
}
