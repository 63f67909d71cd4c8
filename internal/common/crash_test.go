package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashFile(t *testing.T) {
	original := CrashLogDir
	t.Cleanup(func() { CrashLogDir = original })

	dir := filepath.Join(t.TempDir(), "logs")
	InstallCrashHandler(dir)
	assert.DirExists(t, dir)

	path := WriteCrashFile(errors.New("boom"), GetStackTrace())
	require.NotEmpty(t, path)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TICKERSCOPE CRASH REPORT")
	assert.Contains(t, string(data), "boom")
	assert.Contains(t, string(data), "TestWriteCrashFile")
}
