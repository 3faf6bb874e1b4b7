// Package log is the relay's process logger: leveled wrappers around the
// standard library logger writing to stdout.
package log

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// log levels
const (
	DEBUG = iota
	INFO
	ERROR
	DISABLED
)

var (
	debugLog = log.New(os.Stdout, "[DEBUG] ", log.LstdFlags)
	infoLog  = log.New(os.Stdout, "[INFO ] ", log.LstdFlags)
	errorLog = log.New(os.Stdout, "[ERROR] ", log.LstdFlags|log.Lshortfile)

	loggers = []*log.Logger{debugLog, infoLog, errorLog}
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	current int       = INFO
)

var (
	Error  = errorLog.Println
	Errorf = errorLog.Printf
	Info   = infoLog.Println
	Infof  = infoLog.Printf
	Debug  = debugLog.Println
	Debugf = debugLog.Printf
	Fatalf = errorLog.Fatalf
)

// ParseLevel maps a level name to its constant. Unknown names yield INFO.
func ParseLevel(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "error":
		return ERROR
	case "off", "none", "disabled":
		return DISABLED
	}
	return INFO
}

// SetOutput redirects every level to w. Levels silenced by SetLevel stay silent.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	apply(current)
}

func SetLevel(level int) {
	mu.Lock()
	defer mu.Unlock()
	current = level
	apply(level)
}

func apply(level int) {
	for _, logger := range loggers {
		logger.SetOutput(out)
	}

	if DEBUG < level {
		debugLog.SetOutput(io.Discard)
	}

	if INFO < level {
		infoLog.SetOutput(io.Discard)
	}

	if ERROR < level {
		errorLog.SetOutput(io.Discard)
	}
}

// Writer returns the sink used by the INFO level, for access logs.
func Writer() io.Writer {
	return infoLog.Writer()
}
