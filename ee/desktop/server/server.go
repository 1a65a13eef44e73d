// server is a http server that listens to a unix socket or named pipe for windows.
// The application shell uses it to drive the device notification helper, which runs as a
// separate process with access to the OS notification center.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/mofumofu/notifyhelper/ee/desktop/devicenotify"
)

// deviceNotifier is fulfilled by *devicenotify.Helper.
type deviceNotifier interface {
	EnsureNotificationPermission(ctx context.Context) bool
	SendDeviceAddedNotification(ctx context.Context, data devicenotify.DeviceNotificationData) (devicenotify.SendOutcome, error)
	LastNotification() (*devicenotify.LastNotificationRecord, error)
	HandleLastNotificationClick(ctx context.Context) error
	HandleDeviceNotificationClick(ctx context.Context, deviceID string)
}

type DesktopServer struct {
	logger       log.Logger
	server       *http.Server
	listener     net.Listener
	shutdownChan chan<- struct{}
	authToken    string
	notifier     deviceNotifier
}

func New(logger log.Logger, authToken string, socketPath string, shutdownChan chan<- struct{}, notifier deviceNotifier) (*DesktopServer, error) {
	desktopServer := &DesktopServer{
		shutdownChan: shutdownChan,
		authToken:    authToken,
		logger:       log.With(logger, "component", "desktop_server"),
		notifier:     notifier,
	}

	desktopServer.server = &http.Server{
		Handler: desktopServer.routes(),
	}

	// remove existing socket
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, err
	}

	listener, err := listener(socketPath)
	if err != nil {
		return nil, err
	}
	desktopServer.listener = listener

	desktopServer.server.RegisterOnShutdown(func() {
		// remove socket on shutdown
		if err := os.RemoveAll(socketPath); err != nil {
			level.Error(logger).Log("msg", "removing socket on shutdown", "err", err)
		}
	})

	return desktopServer, nil
}

func (s *DesktopServer) routes() http.Handler {
	// match on the escaped path so a device id may carry an encoded slash
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.authMiddleware)

	r.HandleFunc("/shutdown", s.shutdownHandler).Methods(http.MethodPost)
	r.HandleFunc("/permission", s.permissionHandler).Methods(http.MethodGet)
	r.HandleFunc("/notifications/device_added", s.deviceAddedHandler).Methods(http.MethodPost)
	r.HandleFunc("/notifications/last", s.lastNotificationHandler).Methods(http.MethodGet)
	r.HandleFunc("/notifications/last/click", s.lastNotificationClickHandler).Methods(http.MethodPost)
	r.HandleFunc("/devices/{deviceId}/navigate", s.navigateHandler).Methods(http.MethodPost)

	return r
}

func (s *DesktopServer) Serve() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *DesktopServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *DesktopServer) shutdownHandler(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{\"msg\": \"shutting down\"}"))

	select {
	case s.shutdownChan <- struct{}{}:
	default:
		level.Debug(s.logger).Log("msg", "shutdown already requested")
	}
}

func (s *DesktopServer) permissionHandler(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{
		"granted": s.notifier.EnsureNotificationPermission(req.Context()),
	})
}

type sendResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *DesktopServer) deviceAddedHandler(w http.ResponseWriter, req *http.Request) {
	var data devicenotify.DeviceNotificationData
	if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
		level.Debug(s.logger).Log("msg", "malformed device notification body", "err", err)
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	if data.DeviceID == "" || data.DeviceName == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "deviceId and deviceName are required"})
		return
	}

	outcome, err := s.notifier.SendDeviceAddedNotification(req.Context(), data)
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, sendResponse{Outcome: outcome.String(), Error: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, sendResponse{Outcome: outcome.String()})
}

func (s *DesktopServer) lastNotificationHandler(w http.ResponseWriter, req *http.Request) {
	record, err := s.notifier.LastNotification()
	switch {
	case errors.Is(err, devicenotify.ErrNoLastNotification):
		w.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		level.Error(s.logger).Log("msg", "reading last notification", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *DesktopServer) lastNotificationClickHandler(w http.ResponseWriter, req *http.Request) {
	err := s.notifier.HandleLastNotificationClick(req.Context())
	switch {
	case errors.Is(err, devicenotify.ErrNoLastNotification):
		w.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		level.Error(s.logger).Log("msg", "handling notification click", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *DesktopServer) navigateHandler(w http.ResponseWriter, req *http.Request) {
	deviceID, err := url.PathUnescape(mux.Vars(req)["deviceId"])
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed device id"})
		return
	}

	s.notifier.HandleDeviceNotificationClick(req.Context(), deviceID)
	w.WriteHeader(http.StatusOK)
}

func (s *DesktopServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(s.logger).Log("msg", "writing response", "err", err)
	}
}

func (s *DesktopServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.Split(r.Header.Get("Authorization"), "Bearer ")

		if len(authHeader) != 2 {
			level.Debug(s.logger).Log("msg", "malformed authorization header")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if authHeader[1] != s.authToken {
			level.Debug(s.logger).Log("msg", "invalid authorization token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
