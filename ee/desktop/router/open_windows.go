//go:build windows
// +build windows

package router

import (
	"os/exec"
	"syscall"
)

// open opens the specified URL with the user's default handler. rundll32 receives the
// URL as a single argument, so nothing in it is interpreted by cmd.exe.
func open(url string) error {
	command := exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	// https://stackoverflow.com/questions/42500570/how-to-hide-command-prompt-window-when-using-exec-in-golang
	command.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}

	return command.Start()
}
