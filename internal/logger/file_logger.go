package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger represents a file logger for risk engine activity. A nil *Logger
// is valid and silently discards everything, so the compute core can run
// without any I/O.
type Logger struct {
	account string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
	logDir  string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelRisk    LogLevel = "RISK"
	LogLevelTrade   LogLevel = "TRADE"
)

// NewLogger creates a new file logger for the specified account label.
func NewLogger(logDir, account string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("risk_%s_%s.log", account, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		account: account,
		logFile: file,
		logger:  log.New(file, "", 0),
		logDir:  logDir,
	}

	l.writeSessionHeader()

	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
RISK ENGINE SESSION STARTED
================================================================================
Account: %s
Started: %s
================================================================================
`, l.account, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Risk logs a risk gate event
func (l *Logger) Risk(format string, args ...interface{}) {
	l.Log(LogLevelRisk, format, args...)
}

// Trade logs a position lifecycle event
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// LogDecision logs the outcome of a gate evaluation
func (l *Logger) LogDecision(symbol string, approved bool, reason string, multiplier float64, warnings []string) {
	if approved {
		l.Risk("%s approved (multiplier %.2f, %d warnings): %s", symbol, multiplier, len(warnings), reason)
	} else {
		l.Risk("%s REJECTED: %s", symbol, reason)
	}
	for _, w := range warnings {
		l.Warning("%s: %s", symbol, w)
	}
}

// LogStopTrigger logs a stop-loss trigger event
func (l *Logger) LogStopTrigger(symbol, stopType string, stopPrice, currentPrice, pnlPct float64) {
	l.Trade("%s %s stop triggered at %.4f (price %.4f, PnL %.2f%%)", symbol, stopType, stopPrice, currentPrice, pnlPct*100)
}

// LogTakeProfitFill logs one triggered take-profit level
func (l *Logger) LogTakeProfitFill(symbol string, level int, price, qty, remaining float64) {
	l.Trade("%s take-profit level %d filled: price %.4f, qty %.6f, remaining %.6f", symbol, level+1, price, qty, remaining)
}

// LogPause logs a trading pause or resume
func (l *Logger) LogPause(paused bool, reason string) {
	if paused {
		l.Risk("trading PAUSED: %s", reason)
	} else {
		l.Risk("trading resumed")
	}
}

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		footer := fmt.Sprintf(`
================================================================================
RISK ENGINE SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"))
		l.logger.Print(footer)

		return l.logFile.Close()
	}
	return nil
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	if l == nil {
		return ""
	}
	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("risk_%s_%s.log", l.account, timestamp)
	return filepath.Join(l.logDir, filename)
}
