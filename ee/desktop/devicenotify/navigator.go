package devicenotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/kit/log/level"
)

const deviceDetailPathPrefix = "/ipam/device/"

// DeviceDetailPath is the route of a device's detail view. The id is not validated or
// escaped; the detail view is responsible for unknown ids.
func DeviceDetailPath(deviceID string) string {
	return deviceDetailPathPrefix + deviceID
}

// DeviceIDFromPath reverses DeviceDetailPath. It reports false for any other route.
func DeviceIDFromPath(route string) (string, bool) {
	if !strings.HasPrefix(route, deviceDetailPathPrefix) {
		return "", false
	}

	return strings.TrimPrefix(route, deviceDetailPathPrefix), true
}

// NavigateToDeviceDetail moves the application to the device's detail view.
func (h *Helper) NavigateToDeviceDetail(deviceID string) {
	if h.router == nil {
		level.Error(h.logger).Log("msg", "cannot navigate, no router configured", "device_id", deviceID)
		return
	}

	h.router.Goto(DeviceDetailPath(deviceID))
}

// HandleDeviceNotificationClick is what notification click callbacks should call.
func (h *Helper) HandleDeviceNotificationClick(_ context.Context, deviceID string) {
	h.NavigateToDeviceDetail(deviceID)
}

// HandleLastNotificationClick navigates to the device named by the last notification record.
// It serves clicks that cannot be attributed to a particular notification.
func (h *Helper) HandleLastNotificationClick(ctx context.Context) error {
	record, err := h.LastNotification()
	if err != nil {
		return fmt.Errorf("resolving clicked notification: %w", err)
	}

	level.Debug(h.logger).Log("msg", "notification clicked", "device_id", record.DeviceID)
	h.HandleDeviceNotificationClick(ctx, record.DeviceID)
	return nil
}
