package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// packPages は複数ページの成果物を1つのDeflate圧縮ZIPへまとめます。
// エントリ名は <stem>_page_001.<ext> 形式で、ページ順に格納されます。
func packPages(stem, ext string, pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, newError(CodeEmptyInput, "ZIPに格納するページがありません。", nil)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, data := range pages {
		header := &zip.FileHeader{
			Name:   pageEntryName(stem, ext, i+1),
			Method: zip.Deflate,
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("ZIPヘッダーの書き込みに失敗しました: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("ZIPへの書き込みに失敗しました: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ZIPのクローズに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

func pageEntryName(stem, ext string, page int) string {
	return fmt.Sprintf("%s_page_%03d.%s", stem, page, ext)
}
