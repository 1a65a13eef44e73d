//go:build windows
// +build windows

package notify

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
	"gopkg.in/toast.v1"
)

type windowsNotifier struct {
	clickListeners
	interrupter
	logger log.Logger
}

func newOsSpecificNotifier(logger log.Logger) *windowsNotifier {
	return &windowsNotifier{
		interrupter: newInterrupter(),
		logger:      logger,
	}
}

// Toasts are allowed unless the user turned them off in settings, which we cannot observe.
func (w *windowsNotifier) IsPermissionGranted(context.Context) (bool, error) {
	return true, nil
}

func (w *windowsNotifier) RequestPermission(context.Context) (devicenotify.Permission, error) {
	return devicenotify.PermissionGranted, nil
}

func (w *windowsNotifier) SendNotification(_ context.Context, n devicenotify.Notification) error {
	notification := toast.Notification{
		AppID:   appName,
		Title:   n.Title,
		Message: n.Body,
		Actions: []toast.Action{},
	}

	if n.Icon != "" {
		notification.Icon = n.Icon
	}

	return notification.Push()
}
