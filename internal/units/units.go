// Package units は単位換算機能を提供します。
// カテゴリ内のすべての換算は基準単位を介した線形な乗算です。
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownCategory は存在しないカテゴリが指定された場合に返されます。
	ErrUnknownCategory = errors.New("units: unknown category")
	// ErrUnknownUnit はカテゴリ内に存在しない単位記号が指定された場合に返されます。
	ErrUnknownUnit = errors.New("units: unknown unit")
)

// Unit は1つの単位を表します。Factor は基準単位への倍率です。
type Unit struct {
	Name   string
	Symbol string
	Factor float64
}

// Category は単位カテゴリを表します。Units の順序が応答の行順になります。
type Category struct {
	Name  string
	Units []Unit
}

// Row は換算結果表の1行です。
type Row struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Value  string `json:"value"`
}

// categories はプロセス起動時に構築される静的なカテゴリ表です。
// カテゴリ内で単位記号は一意でなければなりません。
var categories = buildCategories()

func buildCategories() []Category {
	cats := []Category{
		{
			Name: "length",
			Units: []Unit{
				{Name: "millimeter", Symbol: "mm", Factor: 0.001},
				{Name: "centimeter", Symbol: "cm", Factor: 0.01},
				{Name: "meter", Symbol: "m", Factor: 1},
				{Name: "kilometer", Symbol: "km", Factor: 1000},
				{Name: "inch", Symbol: "in", Factor: 0.0254},
				{Name: "foot", Symbol: "ft", Factor: 0.3048},
				{Name: "yard", Symbol: "yd", Factor: 0.9144},
				{Name: "mile", Symbol: "mi", Factor: 1609.344},
			},
		},
		{
			Name: "mass",
			Units: []Unit{
				{Name: "milligram", Symbol: "mg", Factor: 0.000001},
				{Name: "gram", Symbol: "g", Factor: 0.001},
				{Name: "kilogram", Symbol: "kg", Factor: 1},
				{Name: "metric ton", Symbol: "t", Factor: 1000},
				{Name: "ounce", Symbol: "oz", Factor: 0.028349523125},
				{Name: "pound", Symbol: "lb", Factor: 0.45359237},
			},
		},
		{
			Name: "time",
			Units: []Unit{
				{Name: "millisecond", Symbol: "ms", Factor: 0.001},
				{Name: "second", Symbol: "s", Factor: 1},
				{Name: "minute", Symbol: "min", Factor: 60},
				{Name: "hour", Symbol: "h", Factor: 3600},
				{Name: "day", Symbol: "d", Factor: 86400},
				{Name: "week", Symbol: "wk", Factor: 604800},
			},
		},
		{
			Name: "area",
			Units: []Unit{
				{Name: "square centimeter", Symbol: "cm2", Factor: 0.0001},
				{Name: "square meter", Symbol: "m2", Factor: 1},
				{Name: "hectare", Symbol: "ha", Factor: 10000},
				{Name: "square kilometer", Symbol: "km2", Factor: 1000000},
				{Name: "square foot", Symbol: "ft2", Factor: 0.09290304},
				{Name: "acre", Symbol: "ac", Factor: 4046.8564224},
			},
		},
		{
			Name: "volume",
			Units: []Unit{
				{Name: "milliliter", Symbol: "ml", Factor: 0.001},
				{Name: "liter", Symbol: "l", Factor: 1},
				{Name: "cubic meter", Symbol: "m3", Factor: 1000},
				{Name: "US gallon", Symbol: "gal", Factor: 3.785411784},
				{Name: "US fluid ounce", Symbol: "fl oz", Factor: 0.0295735295625},
			},
		},
		{
			Name: "speed",
			Units: []Unit{
				{Name: "meter per second", Symbol: "m/s", Factor: 1},
				{Name: "kilometer per hour", Symbol: "km/h", Factor: 0.2777777777777778},
				{Name: "mile per hour", Symbol: "mph", Factor: 0.44704},
				{Name: "knot", Symbol: "kn", Factor: 0.5144444444444445},
			},
		},
		{
			Name: "data",
			Units: []Unit{
				{Name: "byte", Symbol: "B", Factor: 1},
				{Name: "kilobyte", Symbol: "KB", Factor: 1024},
				{Name: "megabyte", Symbol: "MB", Factor: 1048576},
				{Name: "gigabyte", Symbol: "GB", Factor: 1073741824},
				{Name: "terabyte", Symbol: "TB", Factor: 1099511627776},
			},
		},
	}

	for _, cat := range cats {
		seen := make(map[string]struct{}, len(cat.Units))
		for _, u := range cat.Units {
			if _, dup := seen[u.Symbol]; dup {
				panic(fmt.Sprintf("units: duplicate symbol %q in category %q", u.Symbol, cat.Name))
			}
			seen[u.Symbol] = struct{}{}
		}
	}
	return cats
}

// Categories は定義済みカテゴリを宣言順で返します。
func Categories() []Category {
	return categories
}

// Convert は値をカテゴリ内の全単位へ換算し、宣言順の表を返します。
// 入力単位自身の行も含まれます。
func Convert(category, symbol string, value float64) ([]Row, error) {
	cat, err := lookupCategory(category)
	if err != nil {
		return nil, err
	}

	var input *Unit
	for i := range cat.Units {
		if cat.Units[i].Symbol == symbol {
			input = &cat.Units[i]
			break
		}
	}
	if input == nil {
		return nil, fmt.Errorf("%w: %q in category %q", ErrUnknownUnit, symbol, cat.Name)
	}

	base := value * input.Factor
	rows := make([]Row, len(cat.Units))
	for i, u := range cat.Units {
		rows[i] = Row{
			Name:   u.Name,
			Symbol: u.Symbol,
			Value:  FormatValue(base / u.Factor),
		}
	}
	return rows, nil
}

func lookupCategory(name string) (*Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range categories {
		if categories[i].Name == name {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// FormatValue は換算結果の数値を表示用文字列へ整形します。
// 厳密な0は "0"、絶対値が 1e6 以上または 1e-4 未満のときは小数部8桁の
// 指数表記、それ以外は小数部8桁の固定小数点表記（末尾の0と小数点は除去）です。
func FormatValue(v float64) string {
	if v == 0 {
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e6 || abs < 1e-4 {
		return strconv.FormatFloat(v, 'e', 8, 64)
	}

	s := strconv.FormatFloat(v, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
