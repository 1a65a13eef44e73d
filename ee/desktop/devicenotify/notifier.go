package devicenotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-kit/kit/log/level"
)

const notificationTitle = "New device added"

// SendOutcome classifies a SendDeviceAddedNotification call.
type SendOutcome int

const (
	// OutcomeNoPermission means permission was not granted; nothing was stored or sent.
	OutcomeNoPermission SendOutcome = iota
	// OutcomeSent means the notification was handed to the OS.
	OutcomeSent
	// OutcomeFailed means storing the record or dispatching failed; the error is returned.
	OutcomeFailed
)

func (o SendOutcome) String() string {
	switch o {
	case OutcomeNoPermission:
		return "no_permission"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	}

	return fmt.Sprintf("SendOutcome(%d)", int(o))
}

var errNoDispatcher = errors.New("no notification dispatcher configured")

// deviceAddedNotification renders the fixed device-added template.
func deviceAddedNotification(data DeviceNotificationData) Notification {
	name := data.DeviceName
	if data.DeviceType != "" {
		name = fmt.Sprintf("%s (%s)", data.DeviceName, data.DeviceType)
	}

	return Notification{
		Title: notificationTitle,
		Body:  name + " device added",
		Route: DeviceDetailPath(data.DeviceID),
	}
}

// SendDeviceAddedNotification notifies the user that a device was added.
//
// Without permission this is a silent no-op (OutcomeNoPermission, nil error). Otherwise the
// last notification record is written first, then the notification is dispatched. The record
// is kept even when dispatch fails. A dispatch error is returned exactly as the dispatcher
// produced it.
func (h *Helper) SendDeviceAddedNotification(ctx context.Context, data DeviceNotificationData) (SendOutcome, error) {
	logger := level.Debug(h.logger)
	logger.Log("msg", "sending device added notification", "device_id", data.DeviceID, "device_name", data.DeviceName)

	if !h.EnsureNotificationPermission(ctx) {
		level.Warn(h.logger).Log("msg", "notification permission not granted", "device_id", data.DeviceID)
		return OutcomeNoPermission, nil
	}

	payload := deviceAddedNotification(data)
	logger.Log("msg", "notification payload", "title", payload.Title, "body", payload.Body)

	if err := h.storeLastNotification(data); err != nil {
		level.Error(h.logger).Log("msg", "failed to store last notification", "device_id", data.DeviceID, "err", err)
		return OutcomeFailed, err
	}

	if h.dispatcher == nil {
		level.Error(h.logger).Log("msg", "failed to send notification", "err", errNoDispatcher)
		return OutcomeFailed, errNoDispatcher
	}

	if err := h.dispatcher.SendNotification(ctx, payload); err != nil {
		level.Error(h.logger).Log("msg", "failed to send notification", "device_id", data.DeviceID, "err", err)
		return OutcomeFailed, err
	}

	level.Info(h.logger).Log("msg", "device notification sent", "device_name", data.DeviceName)
	return OutcomeSent, nil
}

func (h *Helper) storeLastNotification(data DeviceNotificationData) error {
	if h.store == nil {
		return nil
	}

	raw, err := json.Marshal(LastNotificationRecord{
		DeviceID:   data.DeviceID,
		DeviceName: data.DeviceName,
		Timestamp:  h.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshalling last notification record: %w", err)
	}

	return h.store.Set([]byte(LastNotificationKey), raw)
}
