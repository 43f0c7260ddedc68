package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/codenexus/codenexus-engine/pkg/smells"
)

const fileKeyedPayload = `{
  "_id": "65f0",
  "src/a.py": {"py": {"dead_code": {"success": true, "data": {"dead_code": [1, 2]}}}},
  "src/b.py": {"py": {"magic_numbers": {"success": true, "data": {"magic_numbers": [7]}}}}
}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	smellsFormat, smellsFiles = "json", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSmellsCount_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(fileKeyedPayload), 0o600))

	out, err := runCLI(t, "", "smells", "count", path)
	require.NoError(t, err)

	var got countOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "file_keyed", got.Shape)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.Breakdown[smells.DeadCode])
}

func TestSmellsCount_StdinYAMLFiles(t *testing.T) {
	out, err := runCLI(t, fileKeyedPayload, "smells", "count", "--files", "--format", "yaml", "-")
	require.NoError(t, err)

	var got []smells.FileSmellEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a.py", got[0].FileName)
	assert.Equal(t, 2, got[0].CodeSmellCount)
}

func TestSmellsCount_Errors(t *testing.T) {
	_, err := runCLI(t, "{}", "smells", "count", "--format", "xml", "-")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCLI(t, "", "smells", "count", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read payload")
}

func TestSmellsCount_MalformedPayloadCountsZero(t *testing.T) {
	out, err := runCLI(t, `[1,2`, "smells", "count", "-")
	require.NoError(t, err)

	var got countOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.Total)
	assert.Equal(t, "empty", got.Shape)
}
