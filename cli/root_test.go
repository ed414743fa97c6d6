package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dataworks/dataworks/engine/infra/server"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := RootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	base := []string{"--env-file", "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--log-level", "disabled"}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestListCmd(t *testing.T) {
	t.Run("Should list all tasks as JSON", func(t *testing.T) {
		out, _, err := execute(t, "--data-root", t.TempDir(), "list", "--output", "json")
		require.NoError(t, err)
		var tasks []server.TaskSummary
		require.NoError(t, json.Unmarshal([]byte(out), &tasks))
		assert.Len(t, tasks, 8)
	})

	t.Run("Should render a text listing", func(t *testing.T) {
		out, _, err := execute(t, "--data-root", t.TempDir(), "list", "--output", "text")
		require.NoError(t, err)
		assert.Contains(t, out, "filter_csv")
		assert.Contains(t, out, "B10")
	})
}

func TestRunCmd(t *testing.T) {
	t.Run("Should run a task by alias inside the data root", func(t *testing.T) {
		root := t.TempDir()
		out, _, err := execute(t, "--data-root", root, "run", "B10", "--output", "json")
		require.NoError(t, err)
		var envelope task.Envelope
		require.NoError(t, json.Unmarshal([]byte(out), &envelope))
		assert.Equal(t, "B10 executed: CSV filtered and JSON output saved.", envelope.Message)
		assert.FileExists(t, filepath.Join(root, "filtered.json"))
		assert.FileExists(t, filepath.Join(root, ".dataworks.lock"))
	})

	t.Run("Should print a problem document on failure", func(t *testing.T) {
		_, errOut, err := execute(t, "--data-root", t.TempDir(), "run", "convert_markdown", "--output", "json")
		require.Error(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(errOut), &body))
		assert.Equal(t, task.CodePreconditionFailed, body["code"])
		assert.EqualValues(t, 412, body["status"])
	})

	t.Run("Should reject unknown tasks", func(t *testing.T) {
		_, _, err := execute(t, "--data-root", t.TempDir(), "run", "B42", "--output", "json")
		assert.Equal(t, task.CodeUnknownTask, task.ErrorCode(err))
	})
}

func TestSetupGlobalConfig(t *testing.T) {
	t.Run("Should merge the YAML file and flags into the context", func(t *testing.T) {
		dir := t.TempDir()
		cfgPath := filepath.Join(dir, "dataworks.yaml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("server:\n  port: 9100\ndata:\n  root: /from/yaml\n"), 0o600))
		cmd := RootCmd()
		require.NoError(t, cmd.PersistentFlags().Set("env-file", ""))
		require.NoError(t, cmd.PersistentFlags().Set("config", cfgPath))
		require.NoError(t, cmd.PersistentFlags().Set("data-root", dir))
		require.NoError(t, cmd.PersistentFlags().Set("log-level", "disabled"))
		require.NoError(t, SetupGlobalConfig(cmd))
		cfg := config.FromContext(cmd.Context())
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, dir, cfg.Data.Root)
	})

	t.Run("Should load variables from the env file", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envPath, []byte("DATAWORKS_TASKS__IMAGE__QUALITY=70\n"), 0o600))
		t.Setenv("DATAWORKS_TASKS__IMAGE__QUALITY", "")
		require.NoError(t, os.Unsetenv("DATAWORKS_TASKS__IMAGE__QUALITY"))
		cmd := RootCmd()
		require.NoError(t, cmd.PersistentFlags().Set("env-file", envPath))
		require.NoError(t, cmd.PersistentFlags().Set("config", filepath.Join(dir, "absent.yaml")))
		require.NoError(t, cmd.PersistentFlags().Set("log-level", "disabled"))
		require.NoError(t, SetupGlobalConfig(cmd))
		assert.Equal(t, 70, config.FromContext(cmd.Context()).Tasks.Image.Quality)
	})
}
