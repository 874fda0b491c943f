package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/stock-engine/export"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stockd", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "export", "total"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "driver", "dir", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	assert.NotNil(t, serve.Flags().Lookup("addr"))
	assert.NotNil(t, serve.Flags().Lookup("scenario"))
	assert.Equal(t, "false", serve.Flags().Lookup("no-scheduler").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "total", "--driver", "memory", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestUnknownDriverIsCommandError(t *testing.T) {
	_, err := execute(t, "total", "--driver", "mongo")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTotal_JSON(t *testing.T) {
	// GIVEN: A fresh CSV directory
	dir := t.TempDir()

	// WHEN: Asking for the summary as JSON
	out, err := execute(t, "total", "--driver", "csv", "--dir", dir, "--format", "json")

	// THEN: Everything is zero
	require.NoError(t, err)
	var resp struct {
		Status string         `json:"status"`
		Data   export.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "0.0", resp.Data.Total)
	assert.Zero(t, resp.Data.UnitsInStock)
}

func TestTotal_Text(t *testing.T) {
	out, err := execute(t, "total", "--driver", "memory")
	require.NoError(t, err)
	assert.Equal(t, "variants=0 units=0 service=0 finished=0 sold=0 total=0.0", strings.TrimSpace(out))
}

func TestExport_WritesWorkbook(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	out, err := execute(t, "export", "--driver", "csv", "--dir", dataDir, "--out", outDir)

	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, outDir, filepath.Dir(path))
	matches, err := filepath.Glob(filepath.Join(outDir, "stock-*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", assert.AnError)))
}
