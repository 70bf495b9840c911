package utils

import (
	"fmt"
	"os"
	"os/exec"
)

// RunBashCmd runs a shell pipeline, streaming the child's output through.
// When verbose is set the exact command is echoed first, so a failed run can
// be reproduced by hand.
func RunBashCmd(cmdStr string, verbose bool) error {
	if verbose {
		fmt.Fprintln(os.Stderr, cmdStr)
	}
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// FilesExist validates every path before any external process is launched.
// The first missing file aborts the invocation with no side effects.
func FilesExist(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			return fmt.Errorf("empty file path")
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("file not found: %s", p)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, expected a file", p)
		}
	}
	return nil
}

// MakeTempDir creates the per-invocation temp directory. The returned cleanup
// removes the whole tree; callers defer it so even a failed run does not leave
// the directory behind.
func MakeTempDir(base string, pattern string) (string, func(), error) {
	if base == "" {
		base = "."
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return "", nil, fmt.Errorf("creating temp base %s: %w", base, err)
	}
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir under %s: %w", base, err)
	}
	cleanup := func() {
		os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// NonEmptyFile reports whether path exists with at least one byte in it.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
