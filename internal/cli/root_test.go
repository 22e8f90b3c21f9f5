package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorum/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "quorum", cmd.Use)
	assert.Contains(t, cmd.Long, "threshold")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"init", "owners", "submit", "confirm", "revoke", "amend", "execute",
		"show", "list", "history", "outbox", "stats", "test",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDataCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"submit", "confirm", "revoke", "amend", "execute"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.NotNil(t, sub.Flags().Lookup("db"))
			assert.NotNil(t, sub.Flags().Lookup("as"))
		})
	}

	for _, name := range []string{"owners", "show", "list", "history", "outbox", "stats"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.NotNil(t, sub.Flags().Lookup("db"))
			assert.Nil(t, sub.Flags().Lookup("as"), "read-only commands take no caller")
		})
	}
}

func TestExecuteCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	execCmd, _, err := cmd.Find([]string{"execute"})
	require.NoError(t, err)

	executorFlag := execCmd.Flags().Lookup("executor")
	require.NotNil(t, executorFlag)
	assert.Equal(t, "", executorFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "list", "--db", "x.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEnvironmentIsParsedOnce(t *testing.T) {
	calls := 0
	opts := &RootOptions{LookupEnv: func() (config.Env, error) {
		calls++
		return config.Env{DB: "wallet.db"}, nil
	}}

	for i := 0; i < 3; i++ {
		e, err := opts.environment()
		require.NoError(t, err)
		assert.Equal(t, "wallet.db", e.DB)
	}
	assert.Equal(t, 1, calls)
}

func TestEnvironmentError(t *testing.T) {
	opts := &RootOptions{LookupEnv: func() (config.Env, error) {
		return config.Env{}, errors.New("bad value")
	}}

	_, err := opts.environment()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestDataOptionsFallBackToEnvironment(t *testing.T) {
	opts := &DataOptions{RootOptions: &RootOptions{LookupEnv: func() (config.Env, error) {
		return config.Env{DB: "env.db", Owner: "alice"}, nil
	}}}

	db, err := opts.database()
	require.NoError(t, err)
	assert.Equal(t, "env.db", db)

	caller, err := opts.caller()
	require.NoError(t, err)
	assert.Equal(t, "alice", string(caller))

	opts.Database, opts.As = "flag.db", "bob"
	db, _ = opts.database()
	caller, _ = opts.caller()
	assert.Equal(t, "flag.db", db)
	assert.Equal(t, "bob", string(caller))
}

func TestDataOptionsRequireDatabaseAndCaller(t *testing.T) {
	opts := &DataOptions{RootOptions: &RootOptions{LookupEnv: func() (config.Env, error) {
		return config.Env{}, nil
	}}}

	_, err := opts.database()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db is required")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = opts.caller()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as is required")
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14], "version nibble")
}

func TestExecutorNamed(t *testing.T) {
	for _, name := range []string{"", ExecutorOutbox, ExecutorLog} {
		f, err := executorNamed(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := executorNamed("webhook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown executor "webhook"`)
}

func TestParseIndex(t *testing.T) {
	idx, err := parseIndex("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), idx)

	for _, bad := range []string{"-1", "x", ""} {
		_, err := parseIndex(bad)
		require.Error(t, err, bad)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	}
}
