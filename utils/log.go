package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// RunLog is the per-invocation JSON log. Each pipeline stage writes a
// STARTED/COMPLETED/FAILED entry keyed by program and window, and a re-run
// reads the previous log back to skip work that already finished.
type RunLog struct {
	logger *slog.Logger
	file   *os.File
}

type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Program   string `json:"PROGRAM"`
	Window    string `json:"WINDOW"`
	Status    string `json:"STATUS"`
	Cmd       string `json:"CMD"`
}

func NewRunLog(path string) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening run log %s: %w", path, err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return &RunLog{logger: logger, file: f}, nil
}

func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *RunLog) Started(msg, program, window, cmd string) {
	if l == nil {
		return
	}
	l.logger.Info(msg, "PROGRAM", program, "WINDOW", window, "STATUS", "STARTED", "CMD", cmd)
}

func (l *RunLog) Completed(msg, program, window string) {
	if l == nil {
		return
	}
	l.logger.Info(msg, "PROGRAM", program, "WINDOW", window, "STATUS", "COMPLETED")
}

func (l *RunLog) Failed(msg, program, window string, err error) {
	if l == nil {
		return
	}
	l.logger.Warn(msg, "PROGRAM", program, "WINDOW", window, "STATUS", "FAILED", "error", err.Error())
}

// ParseLogFile reads a previous run's log. A missing file is not an error, it
// simply means nothing has completed yet.
func ParseLogFile(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run log %s: %w", path, err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			// tolerate foreign lines in an appended log
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}

// StageHasCompleted reports whether a COMPLETED entry exists for the given
// program/window pair.
func StageHasCompleted(entries []LogEntry, program, window string) bool {
	for _, e := range entries {
		if e.Program == program && e.Window == window && e.Status == "COMPLETED" {
			return true
		}
	}
	return false
}
