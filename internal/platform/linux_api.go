//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// LinuxAPI implements ActivityAPI for Linux. Window-manager facts need a
// compositor-specific protocol we do not bind yet, so those probes fail open;
// the process heuristic works everywhere through /proc.
type LinuxAPI struct{}

// NewLinuxAPI creates a new Linux probe set.
func NewLinuxAPI() *LinuxAPI {
	return &LinuxAPI{}
}

// NewActivityAPI creates the ActivityAPI for Linux.
func NewActivityAPI() ActivityAPI {
	return NewLinuxAPI()
}

// FrontmostApp is unavailable without a compositor protocol.
// TODO: bind wlr-foreign-toplevel-management for wlroots compositors.
func (l *LinuxAPI) FrontmostApp() (*AppInfo, error) {
	return nil, nil
}

// WindowBounds is unavailable without a compositor protocol.
func (l *LinuxAPI) WindowBounds() (Rect, error) {
	return Rect{}, nil
}

// DisplayBounds is unavailable without a compositor protocol.
func (l *LinuxAPI) DisplayBounds() (Rect, error) {
	return Rect{}, nil
}

// IsScreenBeingCaptured has no portable Linux probe.
func (l *LinuxAPI) IsScreenBeingCaptured() (bool, error) {
	return false, nil
}

// IsScreenSharingActive has no portable Linux probe; sharing daemons are
// found through RunningProcessNames instead.
func (l *LinuxAPI) IsScreenSharingActive() (bool, error) {
	return false, nil
}

// RunningProcessNames reads process names from /proc.
func (l *LinuxAPI) RunningProcessNames() ([]string, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Only numeric directories are processes
		if _, isPID := isAllDigits(entry.Name()); !isPID {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(string(comm)))
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsFocusModeActive has no portable Linux probe.
func (l *LinuxAPI) IsFocusModeActive() (bool, error) {
	return false, nil
}

func isAllDigits(s string) (string, bool) {
	if s == "" {
		return s, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s, false
		}
	}
	return s, true
}
