//go:build !windows && !darwin
// +build !windows,!darwin

package router

import "os/exec"

// open opens the specified URL with the user's default handler
func open(url string) error {
	return exec.Command("xdg-open", url).Start()
}
