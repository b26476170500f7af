//go:build windows

package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	kernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	psapi                        = windows.NewLazySystemDLL("psapi.dll")
	shell32                      = windows.NewLazySystemDLL("shell32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetSystemMetrics         = user32.NewProc("GetSystemMetrics")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procCloseHandle              = kernel32.NewProc("CloseHandle")
	procGetModuleFileNameExW     = psapi.NewProc("GetModuleFileNameExW")
	procSHQueryUserNotification  = shell32.NewProc("SHQueryUserNotificationState")
)

// SHQueryUserNotificationState results we care about.
const (
	qunsBusy             = 2
	qunsRunningFullD3D   = 3
	qunsPresentationMode = 4
	qunsQuietTime        = 6
)

const (
	smCxScreen = 0
	smCyScreen = 1
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

// WindowsAPI implements ActivityAPI for the Windows platform.
type WindowsAPI struct {
	selfPID uint32
}

// NewWindowsAPI creates a new Windows probe set.
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{selfPID: uint32(os.Getpid())}
}

// NewActivityAPI creates the ActivityAPI for Windows.
func NewActivityAPI() ActivityAPI {
	return NewWindowsAPI()
}

// FrontmostApp resolves the foreground window to its owning executable.
func (w *WindowsAPI) FrontmostApp() (*AppInfo, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return nil, nil
	}

	var processID uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&processID)))
	if processID == 0 {
		return nil, nil
	}

	// Open process with PROCESS_QUERY_INFORMATION | PROCESS_VM_READ
	hProcess, _, _ := procOpenProcess.Call(0x0400|0x0010, 0, uintptr(processID))
	if hProcess == 0 {
		return nil, errors.New("OpenProcess failed for foreground window")
	}
	defer procCloseHandle.Call(hProcess)

	var buffer [windows.MAX_PATH]uint16
	ret, _, _ := procGetModuleFileNameExW.Call(hProcess, 0, uintptr(unsafe.Pointer(&buffer[0])), windows.MAX_PATH)
	if ret == 0 {
		return nil, errors.New("GetModuleFileNameEx failed for foreground window")
	}

	exePath := windows.UTF16ToString(buffer[:])
	if exePath == "" {
		return nil, nil
	}

	filename := filepath.Base(exePath)
	name := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))

	return &AppInfo{
		Name:    name,
		ExePath: exePath,
		IsSelf:  processID == w.selfPID,
	}, nil
}

// WindowBounds returns the bounds of the foreground window.
func (w *WindowsAPI) WindowBounds() (Rect, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return Rect{}, errors.New("no foreground window")
	}

	var r winRect
	ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return Rect{}, errors.New("GetWindowRect failed")
	}

	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, nil
}

// DisplayBounds returns the primary display size.
func (w *WindowsAPI) DisplayBounds() (Rect, error) {
	width, _, _ := procGetSystemMetrics.Call(smCxScreen)
	height, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if width == 0 || height == 0 {
		return Rect{}, errors.New("GetSystemMetrics returned zero display size")
	}
	return Rect{Width: int(width), Height: int(height)}, nil
}

// notificationState queries the shell for the user notification state.
func (w *WindowsAPI) notificationState() (int, error) {
	var state int32
	hr, _, _ := procSHQueryUserNotification.Call(uintptr(unsafe.Pointer(&state)))
	if hr != 0 { // S_OK is 0
		return 0, errors.New("SHQueryUserNotificationState failed")
	}
	return int(state), nil
}

// IsScreenBeingCaptured reports the shell busy state, the closest Windows
// equivalent of a capture API; the process heuristic covers the rest.
func (w *WindowsAPI) IsScreenBeingCaptured() (bool, error) {
	state, err := w.notificationState()
	if err != nil {
		return false, err
	}
	return state == qunsBusy, nil
}

// IsScreenSharingActive has no direct Windows probe; sharing daemons are found
// through RunningProcessNames instead.
func (w *WindowsAPI) IsScreenSharingActive() (bool, error) {
	return false, nil
}

// RunningProcessNames snapshots running process executable names, lowercased.
func (w *WindowsAPI) RunningProcessNames() ([]string, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, err
	}

	var names []string
	for {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if name != "" {
			names = append(names, strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))))
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			break
		}
	}
	return names, nil
}

// IsFocusModeActive ORs the legacy quiet-time flag with the fullscreen
// presentation states Focus Assist reports through the shell.
func (w *WindowsAPI) IsFocusModeActive() (bool, error) {
	state, err := w.notificationState()
	if err != nil {
		return false, err
	}
	return state == qunsQuietTime || state == qunsPresentationMode, nil
}
