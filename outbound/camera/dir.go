package camera

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// DirSource reads frames dropped into a spool directory by an external
// capture process, oldest file first, removing each frame once consumed.
// Writers must land frames atomically (write to a temp name, then rename into
// the spool), otherwise a half-written file is consumed as a corrupt frame.
type DirSource struct {
	dir string
}

func Open(root, deviceID string) (*DirSource, error) {
	dir := filepath.Join(root, deviceID)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDeviceNotFound
		}
		if os.IsPermission(err) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}

	if !info.IsDir() {
		return nil, ErrDeviceNotFound
	}

	return &DirSource{dir: dir}, nil
}

func (s *DirSource) CurrentFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, ok := s.oldestFrame()
	if !ok {
		return nil, ErrNotReady
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, ErrNotReady
	}

	img, _, err := image.Decode(f)
	f.Close()

	// Consume the file either way so a corrupt frame cannot wedge the pump.
	os.Remove(name)

	if err != nil {
		return nil, ErrNotReady
	}

	return img, nil
}

func (s *DirSource) Close() error {
	return nil
}

func (s *DirSource) oldestFrame() (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			frames = append(frames, filepath.Join(s.dir, e.Name()))
		}
	}

	if len(frames) == 0 {
		return "", false
	}

	sort.Strings(frames)

	return frames[0], true
}
