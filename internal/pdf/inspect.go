package pdf

import (
	"bytes"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageCount はPDFを検証してページ数を返します。
// 解析できない場合は ErrInvalidDocument、0ページの場合は ErrNoPages を返します。
func PageCount(data []byte) (int, error) {
	count, err := pdfapi.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if count == 0 {
		return 0, ErrNoPages
	}
	return count, nil
}
