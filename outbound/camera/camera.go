package camera

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("camera: permission denied")
	ErrDeviceNotFound   = errors.New("camera: device not found")
	ErrDeviceBusy       = errors.New("camera: device busy")
	ErrInsecureContext  = errors.New("camera: insecure context")

	// ErrNotReady means no full frame is available yet. Callers poll again on
	// the next tick.
	ErrNotReady = errors.New("camera: no full frame available")
)

type DeviceDescriptor struct {
	ID    string
	Label string
}

// FrameSource pulls the most recent full frame from a capture device.
type FrameSource interface {
	CurrentFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// EnumerateDevices lists the capture devices below the spool root, one
// directory per device.
func EnumerateDevices(root string) ([]DeviceDescriptor, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsPermission(err) {
			return nil, ErrPermissionDenied
		}
		if os.IsNotExist(err) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}

	var devices []DeviceDescriptor
	for _, e := range entries {
		if e.IsDir() {
			devices = append(devices, DeviceDescriptor{ID: e.Name(), Label: e.Name()})
		}
	}

	return devices, nil
}

// SelectDefaultDevice prefers a rear-facing device, falling back to the first
// one listed.
func SelectDefaultDevice(devices []DeviceDescriptor) (DeviceDescriptor, bool) {
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Label), "back") {
			return d, true
		}
	}

	if len(devices) > 0 {
		return devices[0], true
	}

	return DeviceDescriptor{}, false
}
