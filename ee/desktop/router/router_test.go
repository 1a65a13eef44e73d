package router

import (
	"bytes"
	"errors"
	"net/url"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{
			name:    "app scheme",
			baseURL: "tauri://localhost",
			path:    "/ipam/device/abc123",
			want:    "tauri://localhost/ipam/device/abc123",
		},
		{
			name:    "trailing slash",
			baseURL: "http://localhost:1420/",
			path:    "/ipam/device/abc123",
			want:    "http://localhost:1420/ipam/device/abc123",
		},
		{
			name:    "relative path",
			baseURL: "http://localhost:1420",
			path:    "ipam",
			want:    "http://localhost:1420/ipam",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opened []string
			r := New(tt.baseURL, WithOpener(func(url string) error {
				opened = append(opened, url)
				return nil
			}))

			r.Goto(tt.path)
			require.Equal(t, []string{tt.want}, opened)
		})
	}
}

func TestGoto_OpenFails(t *testing.T) {
	t.Parallel()

	var logBytes bytes.Buffer
	r := New("tauri://localhost",
		WithLogger(log.NewLogfmtLogger(&logBytes)),
		WithOpener(func(string) error { return errors.New("no handler") }),
	)

	r.Goto("/ipam/device/abc123")
	assert.Contains(t, logBytes.String(), "failed to navigate")
	assert.Contains(t, logBytes.String(), "no handler")
}

func TestURL_EscapesSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		deviceID string
		want     string
	}{
		{
			name:     "ampersand",
			deviceID: "abc&calc.exe",
			want:     "tauri://localhost/ipam/device/abc%26calc.exe",
		},
		{
			name:     "space",
			deviceID: "living room",
			want:     "tauri://localhost/ipam/device/living%20room",
		},
		{
			name:     "query and fragment",
			deviceID: "x?y#z",
			want:     "tauri://localhost/ipam/device/x%3Fy%23z",
		},
		{
			name:     "plain",
			deviceID: "abc-123_v1.0~",
			want:     "tauri://localhost/ipam/device/abc-123_v1.0~",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := New("tauri://localhost").URL("/ipam/device/" + tt.deviceID)
			require.Equal(t, tt.want, got)

			parsed, err := url.Parse(got)
			require.NoError(t, err)
			assert.Equal(t, "/ipam/device/"+tt.deviceID, parsed.Path)
			assert.Empty(t, parsed.RawQuery)
			assert.Empty(t, parsed.Fragment)
		})
	}
}
