package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// mp4Header is an ISO base media ftyp box, enough for content sniffers to
// classify the file as video/mp4.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

// WriteMP4 creates a file that starts with an MP4 header and is padded to
// size bytes. Sizes smaller than the header write the header alone.
func WriteMP4(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	body := append([]byte(nil), mp4Header...)
	if pad := size - int64(len(body)); pad > 0 {
		body = append(body, bytes.Repeat([]byte{0x42}, int(pad))...)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
