package dispatch

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notify sends a desktop notification for the given intervention. On macOS it
// uses osascript, on Linux it tries notify-send. If neither is available, it
// falls back to printing to stderr.
func Notify(iv Intervention) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(iv)
	case "linux":
		return notifyLinux(iv)
	default:
		return notifyFallback(iv)
	}
}

// notifyMacOS sends a notification via osascript on macOS.
func notifyMacOS(iv Intervention) error {
	script := fmt.Sprintf(
		`display notification %q with title "focustrack" subtitle %q`,
		iv.Message(), iv.Title(),
	)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		// Fall back to stderr if osascript fails.
		return notifyFallback(iv)
	}
	return nil
}

// notifyLinux sends a notification via notify-send on Linux.
func notifyLinux(iv Intervention) error {
	_, err := exec.LookPath("notify-send")
	if err != nil {
		return notifyFallback(iv)
	}

	title := fmt.Sprintf("focustrack: %s", iv.Title())
	cmd := exec.Command("notify-send", title, iv.Message())
	if err := cmd.Run(); err != nil {
		return notifyFallback(iv)
	}
	return nil
}

// notifyFallback prints the intervention to stderr when no desktop
// notification system is available.
func notifyFallback(iv Intervention) error {
	_, err := fmt.Fprintf(os.Stderr, "[below %.0f] %s: %s\n",
		iv.Event.Band, iv.Title(), iv.Message())
	return err
}
