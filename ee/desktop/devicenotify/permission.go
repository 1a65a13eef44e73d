package devicenotify

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log/level"
)

var errNoPermissionAPI = errors.New("no permission api configured")

// EnsureNotificationPermission reports whether notifications may be shown, requesting
// permission from the OS when it has not been granted yet. Platform failures are logged
// and reported as false; they never reach the caller.
func (h *Helper) EnsureNotificationPermission(ctx context.Context) bool {
	if h.permissions == nil {
		level.Error(h.logger).Log("msg", "failed to check notification permission", "err", errNoPermissionAPI)
		return false
	}

	level.Debug(h.logger).Log("msg", "checking notification permission")
	granted, err := h.permissions.IsPermissionGranted(ctx)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to check notification permission", "err", err)
		return false
	}
	level.Debug(h.logger).Log("msg", "notification permission checked", "granted", granted)

	if granted {
		return true
	}

	level.Debug(h.logger).Log("msg", "requesting notification permission")
	permission, err := h.permissions.RequestPermission(ctx)
	if err != nil {
		level.Error(h.logger).Log("msg", "failed to request notification permission", "err", err)
		return false
	}
	level.Debug(h.logger).Log("msg", "notification permission requested", "result", string(permission))

	return permission == PermissionGranted
}
