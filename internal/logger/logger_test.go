package logger

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesToDatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SetupLogger(Config{LogsDirectory: dir, LogFileFormat: "test_%s.log", TimeZone: "UTC", Quiet: true}))
	t.Cleanup(func() { _ = Close() })

	assert.True(t, IsInitialized())
	assert.Equal(t, dir, filepath.Dir(GetLogFilePath()))
	assert.Error(t, SetupLogger(Config{LogsDirectory: dir}), "second setup must fail")

	LogSession("0123456789abcdef", "cart saved with %d lines", 3)

	raw, err := os.ReadFile(GetLogFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[session 01234567] cart saved with 3 lines")
	assert.Contains(t, string(raw), "logger_test.go")
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}
