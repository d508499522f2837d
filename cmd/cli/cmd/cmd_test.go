package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testNetwork = `
name: grid
equipments:
  - {id: G1, kind: generator, values: {minP: 0, maxP: 100, targetP: 50}}
  - {id: L1, kind: load, values: {p0: 30}}
`
	testMapping = `
map "load" {
  time_series = "load"
  equipments  = ["L1"]
}

unmapped "generator" {
  equipments = ["G1"]
}
`
	testSeries = "Time;Version;load\n" +
		"2026-01-01T00:00:00Z;1;40\n" +
		"2026-01-01T01:00:00Z;1;60\n"
)

func writeInputs(t *testing.T) (dir, networkPath, mappingPath, tablePath string) {
	t.Helper()
	dir = t.TempDir()
	networkPath = filepath.Join(dir, "network.yaml")
	mappingPath = filepath.Join(dir, "mapping.hcl")
	tablePath = filepath.Join(dir, "series.csv")
	require.NoError(t, os.WriteFile(networkPath, []byte(testNetwork), 0o644))
	require.NoError(t, os.WriteFile(mappingPath, []byte(testMapping), 0o644))
	require.NoError(t, os.WriteFile(tablePath, []byte(testSeries), 0o644))
	return dir, networkPath, mappingPath, tablePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommands(t *testing.T) {
	dir, networkPath, mappingPath, tablePath := writeInputs(t)

	t.Run("map", func(t *testing.T) {
		outDir := filepath.Join(dir, "out")
		_, err := execute(t, "map", "-q", "--no-color", "-n", networkPath, "-m", mappingPath, "-t", tablePath, "-o", outDir)
		require.NoError(t, err)

		for _, name := range []string{"mappingLogs.csv", "mappingLogs.json", "balanceSummary.csv", "balanceStats.csv"} {
			assert.FileExists(t, filepath.Join(outDir, name))
		}
		balance, err := os.ReadFile(filepath.Join(outDir, "balanceSummary.csv"))
		require.NoError(t, err)
		assert.Contains(t, string(balance), "2026-01-01T01:00:00Z;-10")
	})

	t.Run("map json summary", func(t *testing.T) {
		out, err := execute(t, "map", "-f", "json", "-n", networkPath, "-m", mappingPath, "-t", tablePath,
			"-o", filepath.Join(dir, "json"))
		require.NoError(t, err)

		var summary struct {
			Points   int   `json:"points"`
			Versions []int `json:"versions"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
		assert.Equal(t, 2, summary.Points)
		assert.Equal(t, []int{1}, summary.Versions)
	})

	t.Run("check dump hcl", func(t *testing.T) {
		out, err := execute(t, "check", "-n", networkPath, "-m", mappingPath, "--dump", "-", "--dump-format", "hcl")
		require.NoError(t, err)
		assert.Contains(t, out, `map "load"`)
		assert.Contains(t, out, `unmapped "generator"`)
	})

	t.Run("check dump json reloads", func(t *testing.T) {
		dump := filepath.Join(dir, "resolved.json")
		_, err := execute(t, "check", "-q", "-n", networkPath, "-m", mappingPath, "--dump", dump, "--dump-format", "json")
		require.NoError(t, err)

		_, err = execute(t, "check", "-q", "-n", networkPath, "-m", dump, "--dump", "")
		require.NoError(t, err)
	})

	t.Run("stats", func(t *testing.T) {
		out, err := execute(t, "stats", "-t", tablePath, "--json")
		require.NoError(t, err)

		var summaries []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &summaries), out)
		require.Len(t, summaries, 1)
		assert.Equal(t, "load", summaries[0]["name"])
		assert.Equal(t, 100.0, summaries[0]["sum"])
	})

	t.Run("missing series", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.hcl")
		require.NoError(t, os.WriteFile(bad, []byte("map \"load\" {\n  time_series = \"solar\"\n  equipments = [\"L1\"]\n}\n"), 0o644))
		_, err := execute(t, "map", "-q", "-n", networkPath, "-m", bad, "-t", tablePath, "-o", filepath.Join(dir, "bad"))
		assert.ErrorContains(t, err, "solar")
	})
}
