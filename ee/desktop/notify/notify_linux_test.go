//go:build linux
// +build linux

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/godbus/dbus/v5"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
	"github.com/stretchr/testify/require"
)

func testDbusNotifier(lookPath func(string) (string, error)) *dbusNotifier {
	return &dbusNotifier{
		logger:              log.NewNopLogger(),
		signal:              make(chan *dbus.Signal, 10),
		interrupt:           make(chan struct{}, 1),
		sentNotificationIds: make(map[uint32]string),
		lookPath:            lookPath,
	}
}

func TestNotifySendArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"--app-name", appName, "New device added", "nas device added"},
		notifySendArgs(devicenotify.Notification{Title: "New device added", Body: "nas device added"}),
	)

	require.Equal(t,
		[]string{"--app-name", appName, "-i", "/tmp/icon.png", "t", "b"},
		notifySendArgs(devicenotify.Notification{Title: "t", Body: "b", Icon: "/tmp/icon.png"}),
	)
}

func TestPermission_NoBus(t *testing.T) {
	t.Parallel()

	withNotifySend := testDbusNotifier(func(string) (string, error) { return "/usr/bin/notify-send", nil })
	granted, err := withNotifySend.IsPermissionGranted(context.TODO())
	require.NoError(t, err)
	require.True(t, granted)

	permission, err := withNotifySend.RequestPermission(context.TODO())
	require.NoError(t, err)
	require.Equal(t, devicenotify.PermissionGranted, permission)

	nothing := testDbusNotifier(func(string) (string, error) { return "", errors.New("not found") })
	granted, err = nothing.IsPermissionGranted(context.TODO())
	require.NoError(t, err)
	require.False(t, granted)

	permission, err = nothing.RequestPermission(context.TODO())
	require.NoError(t, err)
	require.Equal(t, devicenotify.PermissionDenied, permission)
}

func TestSendNotification_NothingAvailable(t *testing.T) {
	t.Parallel()

	d := testDbusNotifier(func(string) (string, error) { return "", errors.New("not found") })
	require.Error(t, d.SendNotification(context.TODO(), devicenotify.Notification{Title: "t", Body: "b"}))
}

func TestListen_OnlyOurNotifications(t *testing.T) {
	t.Parallel()

	d := testDbusNotifier(nil)
	d.sentNotificationIds[7] = "/ipam/device/older"
	d.sentNotificationIds[8] = "/ipam/device/newer"

	clicked := make(chan string, 10)
	d.RegisterClickListener(func(route string) { clicked <- route })

	done := make(chan error)
	go func() {
		done <- d.Listen()
	}()

	d.signal <- &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(3), defaultActionKey}}
	d.signal <- &dbus.Signal{Name: "org.freedesktop.Notifications.NotificationClosed", Body: []interface{}{uint32(7), uint32(2)}}
	d.signal <- &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(7), "other"}}
	d.signal <- &dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(7), defaultActionKey}}

	select {
	case route := <-clicked:
		require.Equal(t, "/ipam/device/older", route, "click must open the clicked notification's device")
	case <-time.After(5 * time.Second):
		t.Fatal("click on our notification was not reported")
	}

	d.Interrupt(nil)
	require.NoError(t, <-done)
	require.Len(t, clicked, 0, "only one click should have been reported")
}
