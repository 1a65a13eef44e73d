// Package notify delivers notifications to the operating system's notification center and
// reports when the user clicks on one of them.
package notify

import (
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
)

const appName = "mofumofu"

// DesktopNotifier is the OS notification platform: a permission API, a dispatcher, and a
// run group actor (Listen/Interrupt) that reports clicks on notifications it sent.
type DesktopNotifier interface {
	devicenotify.PermissionAPI
	devicenotify.Dispatcher
	RegisterClickListener(func(route string))
	Listen() error
	Interrupt(err error)
}

func NewDesktopNotifier(logger log.Logger) DesktopNotifier {
	return newOsSpecificNotifier(log.With(logger, "component", "desktop_notifier"))
}

// clickListeners is embedded by every OS notifier.
type clickListeners struct {
	mu        sync.RWMutex
	listeners []func(route string)
}

func (c *clickListeners) RegisterClickListener(f func(route string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, f)
}

func (c *clickListeners) notifyClicked(route string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.listeners {
		f(route)
	}
}

// interrupter implements a Listen loop that does nothing but wait to be interrupted.
type interrupter struct {
	interrupt chan struct{}
}

func newInterrupter() interrupter {
	return interrupter{interrupt: make(chan struct{}, 1)}
}

func (i interrupter) Listen() error {
	<-i.interrupt
	return nil
}

func (i interrupter) Interrupt(err error) {
	select {
	case i.interrupt <- struct{}{}:
	default:
	}
}
