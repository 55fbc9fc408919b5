//go:build !(openjpeg && cgo)

package tokens

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/piscan/format"
)

func TestLoadImageJP2WithoutDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.jp2")
	if err := os.WriteFile(path, []byte("\x00\x00\x00\x0cjP  \r\n\x87\n\x00\x00\x00\x14ftypjp2 "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(path); !errors.Is(err, format.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for JPEG 2000, got %v", err)
	}
}
