//go:build !linux && !windows
// +build !linux,!windows

package notify

import (
	"context"

	"github.com/gen2brain/beeep"
	"github.com/go-kit/kit/log"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
)

type beeepNotifier struct {
	clickListeners
	interrupter
	logger log.Logger
}

func newOsSpecificNotifier(logger log.Logger) *beeepNotifier {
	return &beeepNotifier{
		interrupter: newInterrupter(),
		logger:      logger,
	}
}

// beeep handles platform permission prompts internally.
func (b *beeepNotifier) IsPermissionGranted(context.Context) (bool, error) {
	return true, nil
}

func (b *beeepNotifier) RequestPermission(context.Context) (devicenotify.Permission, error) {
	return devicenotify.PermissionGranted, nil
}

func (b *beeepNotifier) SendNotification(_ context.Context, n devicenotify.Notification) error {
	return beeep.Notify(n.Title, n.Body, n.Icon)
}
