//go:build darwin

package platform

import (
	"os/exec"
	"strings"
)

// DarwinAPI implements ActivityAPI for macOS. The AppKit-backed probes need
// cgo bindings we do not carry; process facts come from ps.
type DarwinAPI struct{}

// NewDarwinAPI creates a new macOS probe set.
func NewDarwinAPI() *DarwinAPI {
	return &DarwinAPI{}
}

// NewActivityAPI creates the ActivityAPI for macOS.
func NewActivityAPI() ActivityAPI {
	return NewDarwinAPI()
}

// FrontmostApp is unavailable without AppKit bindings.
// TODO: bind NSWorkspace.frontmostApplication through a small cgo shim.
func (d *DarwinAPI) FrontmostApp() (*AppInfo, error) {
	return nil, nil
}

// WindowBounds is unavailable without AppKit bindings.
func (d *DarwinAPI) WindowBounds() (Rect, error) {
	return Rect{}, nil
}

// DisplayBounds is unavailable without AppKit bindings.
func (d *DarwinAPI) DisplayBounds() (Rect, error) {
	return Rect{}, nil
}

// IsScreenBeingCaptured is unavailable without a CGDisplayStream binding.
func (d *DarwinAPI) IsScreenBeingCaptured() (bool, error) {
	return false, nil
}

// IsScreenSharingActive is unavailable without AppKit bindings; sharing
// daemons are found through RunningProcessNames instead.
func (d *DarwinAPI) IsScreenSharingActive() (bool, error) {
	return false, nil
}

// RunningProcessNames lists running executables via ps.
func (d *DarwinAPI) RunningProcessNames() ([]string, error) {
	out, err := exec.Command("ps", "-axco", "comm").Output()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.ToLower(strings.TrimSpace(line))
		if name != "" && name != "comm" {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsFocusModeActive is unavailable without a DND preference-store binding.
func (d *DarwinAPI) IsFocusModeActive() (bool, error) {
	return false, nil
}
