// Package lockfile records where a running `daylog serve` listens so other
// commands can find it without --url.
package lockfile

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/daylog/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrNoServer is returned when no live server is recorded.
var ErrNoServer = errors.New("daylog server is not running")

// Path returns the lockfile location inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.ServerLockfileName)
}

// Write records addr and the current pid as "addr|pid".
func Write(configDir, addr string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	content := fmt.Sprintf("%s|%d", addr, getpidFunc())
	if err := os.WriteFile(Path(configDir), []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// Remove deletes the lockfile if it still names this process.
func Remove(configDir string) error {
	addr, pid, err := read(Path(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != getpidFunc() {
		return fmt.Errorf("lockfile for %s belongs to process %d", addr, pid)
	}
	return os.Remove(Path(configDir))
}

// Discover returns the base URL of the recorded server after checking that
// its process is alive and is daylog.
func Discover(configDir string) (string, error) {
	addr, pid, err := read(Path(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoServer
		}
		return "", err
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", ErrNoServer
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.AppName, process.Executable())
	}

	return "http://" + dialable(addr), nil
}

func read(path string) (string, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return "", 0, errors.New("lockfile is malformed")
	}

	addr := parts[0]
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address in lockfile: %w", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", 0, errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", 0, fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return "", 0, errors.New("invalid process ID in lockfile")
	}
	return addr, pid, nil
}

// dialable swaps a wildcard listen host for loopback.
func dialable(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
