package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"MASTER_SECRET": "secret",
		"DATA_FILE":     filepath.Join(t.TempDir(), "students.db"),
		"LOG_LEVEL":     "error",
	}
}

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommandWithEnv(env)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "admin", cmd.Use)

	for _, name := range []string{"provision", "seed", "list"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
}

func TestProvisionCommand_Idempotent(t *testing.T) {
	env := testEnv(t)

	out, err := run(t, env, "provision")
	require.NoError(t, err)
	assert.Equal(t, "admin created: admin@123.com\n", out)

	out, err = run(t, env, "provision")
	require.NoError(t, err)
	assert.Equal(t, "admin already exists: admin@123.com\n", out)
}

func TestProvisionCommand_ConfigError(t *testing.T) {
	_, err := run(t, map[string]string{}, "provision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MASTER_SECRET")
}

func TestSeedAndListCommands(t *testing.T) {
	env := testEnv(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`students:
  - name: Ann
    class: "10"
    section: A
    rollNumber: "1"
  - name: Bo
    class: "11"
    rollNumber: "2"
`), 0o600))

	out, err := run(t, env, "seed", seed)
	require.NoError(t, err)
	assert.Equal(t, "seeded 2 of 2 students\n", out)

	out, err = run(t, env, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "Bo")
}

func TestSeedCommand_MissingFile(t *testing.T) {
	_, err := run(t, testEnv(t), "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
