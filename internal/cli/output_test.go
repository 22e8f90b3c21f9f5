package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/ledger"
	"github.com/roach88/quorum/internal/registry"
	"github.com/roach88/quorum/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Flow)
	assert.NotContains(t, buf.String(), `"flow"`)
}

func TestOutputFormatter_JSONSuccessWithFlow(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.SuccessWithFlow(map[string]int{"index": 0}, "flow-1"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "flow-1", resp.Flow)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("QUORUM_NOT_MET", "1 of 2 confirmations", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "QUORUM_NOT_MET", resp.Error.Code)
	assert.Equal(t, "1 of 2 confirmations", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"index": "3"}
	err := formatter.Error("NOT_FOUND", "no such proposal", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Submitted proposal #0")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Submitted proposal #0")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("UNAUTHORIZED", "caller is not an owner", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNAUTHORIZED]")
	assert.Contains(t, buf.String(), "caller is not an owner")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"caller": "mallory"}
	err := formatter.Error("UNAUTHORIZED", "caller is not an owner", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNAUTHORIZED]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("flow: %s", "flow-1")

			assert.Empty(t, buf.String(), "verbose output never goes to stdout in json mode")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "flow: flow-1")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	ledgerErr := &ledger.Error{Code: ledger.ErrCodeQuorumNotMet, Message: "1 of 2 confirmations", Caller: "alice", HasIndex: true}
	configErr := &registry.ConfigError{Reason: "threshold exceeds owner count", Position: -1}

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"ledger", ledgerErr, "QUORUM_NOT_MET", ExitFailure},
		{"wrapped_ledger", fmt.Errorf("submit: %w", ledgerErr), "QUORUM_NOT_MET", ExitFailure},
		{"config", configErr, registry.ErrCodeInvalidConfiguration, ExitCommandError},
		{"stale", WrapExitError(ExitFailure, "retry", store.ErrStaleState), CodeStaleState, ExitFailure},
		{"exit_error", NewExitError(ExitCommandError, "--db is required"), CodeCommand, ExitCommandError},
		{"plain", errors.New("disk full"), CodeCommand, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail(tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestOutputFormatter_FailTextWritesNothing(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(&ledger.Error{Code: ledger.ErrCodeUnauthorized, Caller: ir.Owner("mallory")})
	require.Error(t, err)
	assert.Empty(t, buf.String())
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
		Flow:   "flow-1",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
	assert.Equal(t, "flow-1", decoded.Flow)
}
