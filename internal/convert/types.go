package convert

import (
	"github.com/yourusername/image-forge/internal/raster"
)

// OperationType は変換処理の種別を表します。
type OperationType string

const (
	OperationConvert  OperationType = "convert"
	OperationCompress OperationType = "compress"
)

// ConvertRequest は形式変換の入力です。
type ConvertRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Target      raster.Format
}

// CompressRequest はサイズ圧縮の入力です。
type CompressRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Quality     int
}

// InspectRequest はアップロードされたPDFの検査入力です。
type InspectRequest struct {
	Data        []byte
	Filename    string
	ContentType string
}

// SourceFileMeta は入力ファイルのメタデータです。
type SourceFileMeta struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Pages int    `json:"pages,omitempty"`
}

// ConvertMeta は形式変換のメタデータです。
type ConvertMeta struct {
	Target raster.Format  `json:"target"`
	Pages  int            `json:"pages"`
	Source SourceFileMeta `json:"source"`
}

// CompressMeta はサイズ圧縮のメタデータです。
type CompressMeta struct {
	OriginalSize int64          `json:"originalSize"`
	OutputSize   int64          `json:"outputSize"`
	SavedBytes   int64          `json:"savedBytes"`
	SavedPercent float64        `json:"savedPercent"`
	Quality      int            `json:"quality"`
	Source       SourceFileMeta `json:"source"`
}

// Result は変換・圧縮の成果を表します。成果物本体はダウンロードストアに
// トークンで保存され、本体バイト列はここには含まれません。
type Result struct {
	Token          string        `json:"token"`
	Operation      OperationType `json:"operation"`
	OutputFilename string        `json:"outputFilename"`
	MIME           string        `json:"mime"`
	OutputSize     int64         `json:"outputSize"`
	Label          string        `json:"label,omitempty"`
	Meta           any           `json:"meta,omitempty"`
}

// InspectResult はPDF検査の結果です。
type InspectResult struct {
	Source SourceFileMeta `json:"source"`
}

func computeSavedPercent(before, after int64) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}
