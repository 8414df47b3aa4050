package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// Format は成果物の形式タグを表します。
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	FormatPDF Format = "pdf"
	FormatZIP Format = "zip"
)

// MIME は形式タグに対応する Content-Type を返します。
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	case FormatZIP:
		return "application/zip"
	}
	return "application/octet-stream"
}

// DefaultJPEGQuality は変換時のJPEG品質です。
const DefaultJPEGQuality = 85

// ErrUnsupportedFormat は未対応の出力形式が指定された場合に返されます。
var ErrUnsupportedFormat = errors.New("raster: unsupported target format")

// EncodePNG は可逆・最大圧縮率でPNGへエンコードします。透過は保持されます。
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG は透過を白へ合成したうえで指定品質のJPEGへエンコードします。
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("raster: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode は画像を指定形式の成果物バイト列へエンコードします。
// PDF形式は internal/pdf 側で組み立てるため、ここでは扱いません。
func Encode(img image.Image, target Format) ([]byte, error) {
	switch target {
	case FormatPNG:
		return EncodePNG(img)
	case FormatJPG:
		return EncodeJPEG(img, DefaultJPEGQuality)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, target)
	}
}
