package raster

import (
	"bytes"
	"image/png"
	"testing"
)

func TestPaletteBudget(t *testing.T) {
	cases := []struct {
		quality int
		want    int
	}{
		{20, 32},
		{95, 256},
		{10, 32},  // 下限へ丸め
		{100, 256}, // 上限へ丸め
		{57, 32 + 37*224/75},
	}
	for _, tc := range cases {
		if got := PaletteBudget(tc.quality); got != tc.want {
			t.Fatalf("PaletteBudget(%d) = %d, want %d", tc.quality, got, tc.want)
		}
	}
}

func TestCandidateSizesDedupDescending(t *testing.T) {
	sizes := CandidateSizes(32)
	// {32, 16, 16} → {32, 16}
	if len(sizes) != 2 || sizes[0] != 32 || sizes[1] != 16 {
		t.Fatalf("CandidateSizes(32) = %v", sizes)
	}

	sizes = CandidateSizes(256)
	if len(sizes) != 3 || sizes[0] != 256 || sizes[1] != 128 || sizes[2] != 64 {
		t.Fatalf("CandidateSizes(256) = %v", sizes)
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] >= sizes[i-1] {
			t.Fatalf("sizes not strictly descending: %v", sizes)
		}
	}
}

func TestCompressPNGNeverWorseThanBaseline(t *testing.T) {
	src := gradientImage(64, 48)
	baseline, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG returned error: %v", err)
	}

	for _, q := range []int{20, 50, 95} {
		out, err := CompressPNG(src, q)
		if err != nil {
			t.Fatalf("CompressPNG(q=%d) returned error: %v", q, err)
		}
		if len(out) > len(baseline) {
			t.Fatalf("CompressPNG(q=%d) = %d bytes, baseline %d bytes", q, len(out), len(baseline))
		}
		if _, err := png.Decode(bytes.NewReader(out)); err != nil {
			t.Fatalf("CompressPNG(q=%d) output not decodable: %v", q, err)
		}
	}
}

func TestCompressPNGDeterministic(t *testing.T) {
	src := gradientImage(48, 48)
	first, err := CompressPNG(src, 50)
	if err != nil {
		t.Fatalf("CompressPNG returned error: %v", err)
	}
	second, err := CompressPNG(src, 50)
	if err != nil {
		t.Fatalf("CompressPNG returned error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("CompressPNG not deterministic for same input and quality")
	}
}

func TestCompressPNGLowQualityNotLarger(t *testing.T) {
	src := gradientImage(96, 64)
	low, err := CompressPNG(src, 20)
	if err != nil {
		t.Fatalf("CompressPNG(20) returned error: %v", err)
	}
	high, err := CompressPNG(src, 95)
	if err != nil {
		t.Fatalf("CompressPNG(95) returned error: %v", err)
	}
	if len(low) > len(high) {
		t.Fatalf("quality 20 output (%d bytes) larger than quality 95 (%d bytes)", len(low), len(high))
	}
}

func TestCompressPNGKeepsDimensions(t *testing.T) {
	src := translucentImage(33, 21)
	out, err := CompressPNG(src, 40)
	if err != nil {
		t.Fatalf("CompressPNG returned error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	if decoded.Bounds().Dx() != 33 || decoded.Bounds().Dy() != 21 {
		t.Fatalf("unexpected dimensions: %v", decoded.Bounds())
	}
}

func TestCompressJPEGDeterministic(t *testing.T) {
	src := gradientImage(40, 40)
	first, err := CompressJPEG(src, 30)
	if err != nil {
		t.Fatalf("CompressJPEG returned error: %v", err)
	}
	second, err := CompressJPEG(src, 30)
	if err != nil {
		t.Fatalf("CompressJPEG returned error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("CompressJPEG not deterministic for same input and quality")
	}
}

func TestClampQuality(t *testing.T) {
	if got := ClampQuality(5); got != 20 {
		t.Fatalf("ClampQuality(5) = %d", got)
	}
	if got := ClampQuality(120); got != 95 {
		t.Fatalf("ClampQuality(120) = %d", got)
	}
	if got := ClampQuality(60); got != 60 {
		t.Fatalf("ClampQuality(60) = %d", got)
	}
}
