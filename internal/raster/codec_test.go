package raster

import (
	"errors"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	data, err := EncodePNG(gradientImage(8, 8))
	if err != nil {
		t.Fatalf("EncodePNG returned error: %v", err)
	}
	return data
}

func TestRegistryDecodeByExtension(t *testing.T) {
	reg := DefaultRegistry()
	img, err := reg.Decode(pngBytes(t), "photo.PNG", "")
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
}

func TestRegistryDecodeByContentType(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Decode(pngBytes(t), "upload.bin", "image/png; charset=binary"); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
}

func TestRegistryDecodeSniffsContent(t *testing.T) {
	// 拡張子もContent-Typeも手掛かりにならない場合は内容から判定する
	reg := DefaultRegistry()
	if _, err := reg.Decode(pngBytes(t), "upload.dat", "application/octet-stream"); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
}

func TestRegistryDecodeUnknownInput(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Decode([]byte("not an image at all"), "note.txt", "text/plain"); !errors.Is(err, ErrUnknownImage) {
		t.Fatalf("expected ErrUnknownImage, got %v", err)
	}
}

func TestRegistryDecodeCorruptPayload(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.Decode([]byte("garbage"), "broken.png", "image/png"); err == nil {
		t.Fatal("expected decode error for corrupt payload")
	}
}
