// Package pdf はPDFページのラスタライズと再構築機能を提供します。
package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/yourusername/image-forge/internal/raster"
)

var (
	// ErrInvalidDocument は開けない・解析できないPDFに対して返されます。
	ErrInvalidDocument = errors.New("pdf: invalid document")
	// ErrNoPages はページを1枚も持たないPDFに対して返されます。
	ErrNoPages = errors.New("pdf: document has no pages")
	// ErrEmptyPageSet は空のページ列からPDFを組み立てようとした場合に返されます。
	ErrEmptyPageSet = errors.New("pdf: empty page set")
)

// DefaultConvertScale は変換時の既定レンダリング倍率です（1.0 = 72dpi相当）。
const DefaultConvertScale = 2.0

// CompressScale は品質ダイヤルからレンダリング倍率を導出します。
// 低品質ほど小さく描画してサイズをさらに縮めます（およそ 0.9〜2.0）。
func CompressScale(quality int) float64 {
	q := raster.ClampQuality(quality)
	return 0.9 + float64(q-raster.MinQuality)/float64(raster.MaxQuality-raster.MinQuality)*1.1
}

// RenderPages はPDFの全ページを指定倍率でラスタライズします。
// 各ページはPDF側の色空間に関わらずトゥルーカラー（アルファ付き）になります。
// 返されるページ列の長さは常に1以上です。
func RenderPages(ctx context.Context, data []byte, scale float64) ([]image.Image, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if scale <= 0 {
		scale = DefaultConvertScale
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, ErrNoPages
	}

	pages := make([]image.Image, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, 72*scale)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, i+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
