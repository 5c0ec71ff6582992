// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls where the storefront writes its logs.
type Config struct {
	LogsDirectory string
	LogFileFormat string
	TimeZone      string
	Quiet         bool // file only, no console copy
}

var (
	initialized int32 // 0 = not initialized, 1 = initialized
	logger      *log.Logger
	logFile     *os.File
	timeZone    = time.Local
	logFilePath string
	mu          sync.Mutex
)

// SetupLogger opens the dated log file and starts writing to it (and stdout unless Quiet).
func SetupLogger(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if atomic.LoadInt32(&initialized) == 1 {
		return fmt.Errorf("logger already initialized")
	}

	if config.TimeZone == "" {
		config.TimeZone = "Asia/Jakarta"
	}
	if config.LogFileFormat == "" {
		config.LogFileFormat = "storefront_%s.log"
	}

	loc, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		return fmt.Errorf("failed to load time zone %q: %w", config.TimeZone, err)
	}

	if err := os.MkdirAll(config.LogsDirectory, 0775); err != nil {
		return fmt.Errorf("failed to create logs directory %q: %w", config.LogsDirectory, err)
	}

	name := fmt.Sprintf(config.LogFileFormat, time.Now().In(loc).Format("2006-01-02"))
	path := name
	if !filepath.IsAbs(name) {
		path = filepath.Join(config.LogsDirectory, name)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0664)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", path, err)
	}

	var out io.Writer = f
	if !config.Quiet {
		out = io.MultiWriter(os.Stdout, f)
	}

	timeZone = loc
	logFile = f
	logFilePath = path
	logger = log.New(out, "", 0)

	atomic.StoreInt32(&initialized, 1)
	LogInfo("Logger initialized, writing to %s", logFilePath)
	return nil
}

// Close flushes and releases the log file. Later calls fall back to the standard logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if atomic.LoadInt32(&initialized) == 0 {
		return nil
	}
	atomic.StoreInt32(&initialized, 0)
	logger = nil
	err := logFile.Close()
	logFile = nil
	return err
}

func GetLogFilePath() string {
	return logFilePath
}

func IsInitialized() bool {
	return atomic.LoadInt32(&initialized) == 1
}

func LogMessage(level string, message string, v ...interface{}) {
	formatted := fmt.Sprintf(message, v...)
	if !IsInitialized() {
		log.Printf("[%s] %s", level, formatted)
		return
	}

	_, file, line, _ := runtime.Caller(2)
	timestamp := time.Now().In(timeZone).Format("2006-01-02 15:04:05 MST")
	logger.Printf("[%s] %s %s:%d - %s", level, timestamp, filepath.Base(file), line, formatted)
}

func LogInfo(message string, v ...interface{})  { LogMessage("INFO", message, v...) }
func LogWarn(message string, v ...interface{})  { LogMessage("WARN", message, v...) }
func LogError(message string, v ...interface{}) { LogMessage("ERROR", message, v...) }
func LogFatal(message string, v ...interface{}) {
	LogMessage("FATAL", message, v...)
	os.Exit(1)
}

// LogSession tags a message with the short form of a storefront session ID.
func LogSession(sessionID string, message string, v ...interface{}) {
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	LogMessage("INFO", "[session %s] "+message, append([]interface{}{sessionID}, v...)...)
}

func LogHTTPError(r *http.Request, status int, err error) {
	LogError("HTTP %d error for %s %s from %s: %v", status, r.Method, r.URL.Path, GetClientIP(r), err)
}

func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
