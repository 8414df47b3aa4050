package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
)

// 品質ダイヤルの定義域。範囲外の値は両端へ丸められます。
const (
	MinQuality = 20
	MaxQuality = 95

	// DefaultCompressQuality は品質指定を省略した場合の既定値です。
	DefaultCompressQuality = 75
)

// ClampQuality は品質値を 20..95 の範囲へ丸めます。
func ClampQuality(q int) int {
	if q < MinQuality {
		return MinQuality
	}
	if q > MaxQuality {
		return MaxQuality
	}
	return q
}

// PaletteBudget は品質ダイヤルをパレット色数へ線形に写像します。
// quality=20 で 32色、quality=95 で 256色になります。
func PaletteBudget(quality int) int {
	q := ClampQuality(quality)
	colors := 32 + (q-MinQuality)*224/(MaxQuality-MinQuality)
	if colors < 32 {
		colors = 32
	}
	if colors > 256 {
		colors = 256
	}
	return colors
}

// CandidateSizes は候補となるパレットサイズ列を返します。
// {colors, colors/2, colors/4}（下限16）を重複除去し降順に並べます。
func CandidateSizes(colors int) []int {
	raw := []int{colors, max(16, colors/2), max(16, colors/4)}
	seen := make(map[int]struct{}, len(raw))
	sizes := make([]int, 0, len(raw))
	for _, n := range raw {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		sizes = append(sizes, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

// CompressPNG は品質ダイヤルに応じたパレット候補を生成し、
// 可逆再エンコードをベースラインとして最小の候補を返します。
// 出力は常に可逆再エンコード以下のサイズで、同一入力・同一品質に対して
// 決定的です。
func CompressPNG(img image.Image, quality int) ([]byte, error) {
	baseline, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	best := baseline
	transparent := HasAlpha(img)
	src := toNRGBA(img)

	for _, n := range CandidateSizes(PaletteBudget(quality)) {
		candidate, err := EncodePNG(quantizeImage(src, n, transparent))
		if err != nil {
			return nil, err
		}
		if len(candidate) < len(best) {
			best = candidate
		}
	}
	return best, nil
}

// CompressJPEG は透過を合成したうえで指定品質で再エンコードします。
func CompressJPEG(img image.Image, quality int) ([]byte, error) {
	return EncodeJPEG(img, ClampQuality(quality))
}

// quantizeImage はメディアンカット法で減色したインデックスカラー画像を返します。
// ディザリングは行いません。透過画像には透明色を確保した量子化器を使います。
func quantizeImage(src *image.NRGBA, colors int, transparent bool) *image.Paletted {
	q := quantize.MedianCutQuantizer{AddTransparent: transparent}
	palette := q.Quantize(make([]color.Color, 0, colors), src)

	dst := image.NewPaletted(src.Bounds(), palette)
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
