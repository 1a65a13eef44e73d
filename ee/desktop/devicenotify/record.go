package devicenotify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// LastNotificationKey is the store key holding the most recent LastNotificationRecord.
const LastNotificationKey = "lastDeviceNotification"

var ErrNoLastNotification = errors.New("no device notification has been recorded")

// LastNotificationRecord is what a notification click needs to find its device.
// Timestamp is milliseconds since the unix epoch.
type LastNotificationRecord struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	Timestamp  int64  `json:"timestamp"`
}

func (r LastNotificationRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// LastNotification returns the record written by the most recent permitted send.
func (h *Helper) LastNotification() (*LastNotificationRecord, error) {
	if h.store == nil {
		return nil, ErrNoLastNotification
	}

	raw, err := h.store.Get([]byte(LastNotificationKey))
	if err != nil {
		return nil, fmt.Errorf("reading last notification: %w", err)
	}
	if raw == nil {
		return nil, ErrNoLastNotification
	}

	var record LastNotificationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding last notification: %w", err)
	}

	return &record, nil
}
