package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestRun_Success(t *testing.T) {
	result := Run("true", t.TempDir())
	assert.Equal(t, Success, result.Disposition)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRun_NonZeroExitIsFailed(t *testing.T) {
	dir := t.TempDir()
	script := writeExecutable(t, dir, "fail.sh", "exit 3")

	result := Run(script, dir)
	assert.Equal(t, Failed, result.Disposition)
	assert.Equal(t, 3, result.ExitCode)
}

func TestRun_Exit255IsCanceled(t *testing.T) {
	dir := t.TempDir()
	script := writeExecutable(t, dir, "cancel.sh", "exit 255")

	result := Run(script, dir)
	assert.Equal(t, Canceled, result.Disposition)
	assert.Equal(t, 255, result.ExitCode)
}

func TestRun_SpawnFailure(t *testing.T) {
	result := Run("this-executable-does-not-exist-anywhere", t.TempDir())
	assert.Equal(t, SpawnFailed, result.Disposition)
	assert.Error(t, result.SpawnErr)
}

func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	script := writeExecutable(t, dir, "pwd_check.sh", "pwd > \"$FLOW_TEST_PWD_OUT\"")

	out := filepath.Join(dir, "pwd.out")
	t.Setenv("FLOW_TEST_PWD_OUT", out)

	result := Run(script, dir)
	require.Equal(t, Success, result.Disposition)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	resolvedOut, err := filepath.EvalSymlinks(string(bytesTrimNewline(data)))
	require.NoError(t, err)
	assert.Equal(t, resolvedDir, resolvedOut)
}

func bytesTrimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func TestRun_EmptyCommand(t *testing.T) {
	result := Run("   ", t.TempDir())
	assert.Equal(t, SpawnFailed, result.Disposition)
	assert.Error(t, result.SpawnErr)
}
