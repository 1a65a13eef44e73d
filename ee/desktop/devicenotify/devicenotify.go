// Package devicenotify tells the user, through the OS notification center, that a device
// was added, and routes notification clicks to that device's detail view.
//
// The helper owns no platform code. Permission checks, notification dispatch, the key/value
// store and navigation are injected, so the same helper runs against dbus, toast, a local
// bbolt database, or test fakes.
package devicenotify

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/mixer/clock"
	"github.com/mofumofu/notifyhelper/pkg/agent/types"
)

// DeviceNotificationData describes the device that triggered a notification.
type DeviceNotificationData struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	DeviceType string `json:"deviceType,omitempty"`
}

// Permission is the answer to a permission request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// PermissionAPI queries and requests OS notification permission.
type PermissionAPI interface {
	IsPermissionGranted(ctx context.Context) (bool, error)
	// RequestPermission may block while the user answers an OS dialog.
	RequestPermission(ctx context.Context) (Permission, error)
}

// Notification is the payload handed to a Dispatcher. An empty Icon means no icon.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	// Route is the application route a click on the notification opens.
	Route string `json:"route,omitempty"`
}

// Dispatcher delivers a notification to the OS notification center.
type Dispatcher interface {
	SendNotification(ctx context.Context, n Notification) error
}

// Router performs a fire-and-forget navigation to an application route.
type Router interface {
	Goto(path string)
}

// Helper ties together the permission gate, the notifier and the navigator.
type Helper struct {
	logger      log.Logger
	permissions PermissionAPI
	dispatcher  Dispatcher
	store       types.GetterSetter
	router      Router
	clock       clock.Clock
}

type Option func(*Helper)

func WithLogger(logger log.Logger) Option {
	return func(h *Helper) {
		h.logger = log.With(logger, "component", "device_notifier")
	}
}

func WithPermissionAPI(p PermissionAPI) Option {
	return func(h *Helper) {
		h.permissions = p
	}
}

func WithDispatcher(d Dispatcher) Option {
	return func(h *Helper) {
		h.dispatcher = d
	}
}

// WithStore sets the store holding the last notification record. Without one, the record
// is never written and LastNotification always reports ErrNoLastNotification.
func WithStore(s types.GetterSetter) Option {
	return func(h *Helper) {
		h.store = s
	}
}

func WithRouter(r Router) Option {
	return func(h *Helper) {
		h.router = r
	}
}

func WithClock(c clock.Clock) Option {
	return func(h *Helper) {
		h.clock = c
	}
}

func New(opts ...Option) *Helper {
	h := &Helper{
		logger: log.NewNopLogger(),
		clock:  clock.DefaultClock{},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}
