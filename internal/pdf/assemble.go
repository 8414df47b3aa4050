package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/jung-kurt/gofpdf"

	"github.com/yourusername/image-forge/internal/raster"
)

// FromImages はページ画像列を1つの複数ページPDFへまとめます。
// 各ページは白背景へ合成したうえで指定品質のJPEGとして埋め込まれます。
// scale はページがラスタライズされた倍率で、ページの物理サイズを
// 元のPDFと同じ px/scale ポイントに戻すために使われます。
// 単一画像をPDF化する場合は scale=1.0（1px = 1pt）を指定します。
func FromImages(ctx context.Context, pages []image.Image, scale float64, quality int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(pages) == 0 {
		return nil, ErrEmptyPageSet
	}
	if scale <= 0 {
		scale = 1.0
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	opts := gofpdf.ImageOptions{ImageType: "JPG"}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		encoded, err := raster.EncodeJPEG(page, quality)
		if err != nil {
			return nil, fmt.Errorf("pdf: page %d: %w", i+1, err)
		}

		b := page.Bounds()
		w := float64(b.Dx()) / scale
		h := float64(b.Dy()) / scale
		doc.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("page-%03d", i+1)
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(encoded))
		doc.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: assemble: %w", err)
	}
	return buf.Bytes(), nil
}
