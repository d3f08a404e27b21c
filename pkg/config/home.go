package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "SCROLL_RUNNER_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the scroll-runner home directory, where reports go by
// default. It is resolved once per process, first match wins:
//
//	$SCROLL_RUNNER_HOME
//	<home> when the binary lives in <home>/bin/
//	the working directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		if home, ok := homeFromExecutable(exe); ok {
			return home
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// homeFromExecutable returns <home> for a binary at <home>/bin/<name>.
func homeFromExecutable(exe string) (string, bool) {
	binDir := filepath.Dir(exe)
	if filepath.Base(binDir) != "bin" {
		return "", false
	}
	return filepath.Dir(binDir), true
}

// ResetHome clears the cached home so tests can re-resolve it.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
