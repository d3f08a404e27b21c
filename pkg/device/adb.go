// Package device finds connected Android devices via ADB.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ListAndroid returns the serials of connected Android devices in the order
// adb reports them. Offline and unauthorized devices are left out.
func ListAndroid(ctx context.Context) ([]string, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}
	out, err := adb(ctx, adbPath, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

// FirstAndroid returns the first connected device serial.
func FirstAndroid(ctx context.Context) (string, error) {
	serials, err := ListAndroid(ctx)
	if err != nil {
		return "", err
	}
	if len(serials) == 0 {
		return "", fmt.Errorf("no connected devices found")
	}
	return serials[0], nil
}

// parseDevices extracts ready serials from `adb devices` output.
func parseDevices(out string) []string {
	var serials []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}

// adb executes an ADB command.
func adb(ctx context.Context, adbPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, adbPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = stdout.String()
		}
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(errMsg))
	}

	return stdout.String(), nil
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
}
