package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// gradientImage は量子化・圧縮テスト用の多色グラデーション画像を作ります。
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}
	return img
}

func translucentImage(w, h int) *image.NRGBA {
	img := gradientImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			c.A = uint8(x * 255 / w)
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodePNGRoundTrip(t *testing.T) {
	src := gradientImage(40, 30)
	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG returned error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("EncodePNG returned empty payload")
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not decodable PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 30 {
		t.Fatalf("unexpected dimensions: %v", decoded.Bounds())
	}
}

func TestEncodeJPEGFlattensAlpha(t *testing.T) {
	src := translucentImage(32, 32)
	data, err := EncodeJPEG(src, 85)
	if err != nil {
		t.Fatalf("EncodeJPEG returned error: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not decodable JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 32 {
		t.Fatalf("unexpected dimensions: %v", decoded.Bounds())
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	if _, err := Encode(gradientImage(4, 4), Format("bmp")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFlattenRemovesAlpha(t *testing.T) {
	flat := Flatten(translucentImage(16, 16))
	if HasAlpha(flat) {
		t.Fatal("Flatten output still has alpha")
	}
	if flat.Bounds().Dx() != 16 || flat.Bounds().Dy() != 16 {
		t.Fatalf("unexpected dimensions: %v", flat.Bounds())
	}
}

func TestFlattenExpandsPaletted(t *testing.T) {
	pal := color.Palette{color.White, color.Black}
	src := image.NewPaletted(image.Rect(0, 0, 8, 8), pal)
	flat := Flatten(src)
	if _, ok := flat.(*image.Paletted); ok {
		t.Fatal("Flatten did not expand indexed image")
	}
}

func TestFlattenSharesOpaqueBuffer(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}
	if got := Flatten(src); got != image.Image(src) {
		t.Fatal("expected opaque RGBA input to be returned as-is")
	}
}

func TestFlattenCompositesOverWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0}) // 完全透過
	flat := Flatten(src)
	r, g, b, _ := flat.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("transparent pixel composited to %v, want white", flat.At(0, 0))
	}
}

func TestFormatMIME(t *testing.T) {
	cases := map[Format]string{
		FormatPNG: "image/png",
		FormatJPG: "image/jpeg",
		FormatPDF: "application/pdf",
		FormatZIP: "application/zip",
	}
	for f, want := range cases {
		if got := f.MIME(); got != want {
			t.Fatalf("%s MIME = %q, want %q", f, got, want)
		}
	}
}
