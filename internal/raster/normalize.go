package raster

import (
	"image"
	"image/draw"
)

// HasAlpha は画像が透過情報を持つかどうかを返します。
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	// Gray/YCbCr/CMYK などアルファを持たないモデル
	return false
}

// Flatten は透過部分を白背景へ合成し、不透明なトゥルーカラー画像を返します。
// インデックスカラー画像もトゥルーカラーへ展開されます。変換が不要な場合は
// 入力をそのまま返しますが、呼び出し元のバッファを書き換えることはありません。
func Flatten(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.RGBA:
		if src.Opaque() {
			return src
		}
	case *image.NRGBA:
		if src.Opaque() {
			return src
		}
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// toNRGBA は量子化器へ渡すために画像を NRGBA へ揃えます。
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
