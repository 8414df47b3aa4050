// Package raster はラスタ画像のデコード・正規化・エンコード・圧縮機能を提供します。
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/heic"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnknownImage は対応するデコーダが登録されていない場合に返されます。
var ErrUnknownImage = errors.New("raster: no decoder registered for input")

// Decoder は1つのコンテナ形式をラスタ画像へデコードします。
type Decoder func(r io.Reader) (image.Image, error)

// Registry は拡張子・Content-Type からデコーダを引く能力表です。
// import時の副作用に頼らず、起動時に明示的に構築してコアへ渡します。
type Registry struct {
	byExt  map[string]Decoder
	byMIME map[string]Decoder
}

// NewRegistry は空の Registry を作成します。
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string]Decoder),
		byMIME: make(map[string]Decoder),
	}
}

// Register はデコーダを拡張子と Content-Type に対応付けます。
// 拡張子はドットなし小文字で指定します。
func (reg *Registry) Register(dec Decoder, exts []string, mimes []string) {
	for _, ext := range exts {
		reg.byExt[strings.ToLower(ext)] = dec
	}
	for _, m := range mimes {
		reg.byMIME[strings.ToLower(m)] = dec
	}
}

// Decode はファイル名と申告 Content-Type、最後に内容のスニッフィングの順で
// デコーダを選択し、画像をデコードします。EXIF の回転補正はデコーダ内で
// 適用済みのため、返る画像に向き情報は残りません。
func (reg *Registry) Decode(data []byte, filename, contentType string) (image.Image, error) {
	dec := reg.lookup(filename, contentType)
	if dec == nil {
		detected := mimetype.Detect(data)
		dec = reg.byMIME[strings.ToLower(detected.String())]
	}
	if dec == nil {
		return nil, ErrUnknownImage
	}

	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	return img, nil
}

func (reg *Registry) lookup(filename, contentType string) Decoder {
	if ct := normalizeContentType(contentType); ct != "" {
		if dec, ok := reg.byMIME[ct]; ok {
			return dec
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "" {
		if dec, ok := reg.byExt[ext]; ok {
			return dec
		}
	}
	return nil
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if ct == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		return parsed
	}
	return ct
}

// DefaultRegistry はサポートする全コンテナ形式を登録した Registry を返します。
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	// JPEGのみEXIFの向き情報を持つため、デコード時に回転補正を適用する
	reg.Register(func(r io.Reader) (image.Image, error) {
		return imaging.Decode(r, imaging.AutoOrientation(true))
	}, []string{"jpg", "jpeg"}, []string{"image/jpeg"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return png.Decode(r)
	}, []string{"png"}, []string{"image/png"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return gif.Decode(r)
	}, []string{"gif"}, []string{"image/gif"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return webp.Decode(r)
	}, []string{"webp"}, []string{"image/webp"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return bmp.Decode(r)
	}, []string{"bmp"}, []string{"image/bmp", "image/x-ms-bmp"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return tiff.Decode(r)
	}, []string{"tif", "tiff"}, []string{"image/tiff"})

	reg.Register(func(r io.Reader) (image.Image, error) {
		return heic.Decode(r)
	}, []string{"heic", "heif"}, []string{"image/heic", "image/heif"})

	return reg
}
