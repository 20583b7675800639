package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NamanBalaji/repstream/internal/logger"
)

func TestLoggingDisabledByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "repstream.log")

	require.NoError(t, logger.InitLogging(false, path))
	defer logger.Close()

	logger.Errorf("should not be written")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "log file must not be created when debug is off")
}

func TestLoggingWritesLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "repstream.log")

	require.NoError(t, logger.InitLogging(true, path))

	logger.Debugf("advance %d", 1)
	logger.Warnf("cleanup failed: %s", "boom")
	logger.Close()
	logger.Infof("dropped after close")

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(b)
	assert.Contains(t, content, "[DEBUG] advance 1")
	assert.Contains(t, content, "[WARNING] cleanup failed: boom")
	assert.NotContains(t, content, "dropped after close")
	assert.Contains(t, content, "logger_test.go", "caller file should be recorded")
}
