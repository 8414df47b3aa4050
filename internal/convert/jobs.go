package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/image-forge/internal/pdf"
	"github.com/yourusername/image-forge/internal/raster"
)

// PrepareConvertJob は非同期の形式変換に備えて入力を検証し保存します。
// 返されるマニフェストのサイズ・ページ数は同期/非同期の振り分けに使われます。
func (s *Service) PrepareConvertJob(ctx context.Context, req *ConvertRequest) (*JobManifest, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || len(req.Data) == 0 {
		return nil, newError(CodeEmptyInput, "ファイルが空です。", nil)
	}

	target := raster.Format(strings.ToLower(strings.TrimSpace(string(req.Target))))
	switch target {
	case raster.FormatPNG, raster.FormatJPG, raster.FormatPDF:
	default:
		return nil, newError(CodeUnsupportedFormat, "対応していない出力形式です。", nil)
	}
	if isPDFSource(req.Filename, req.ContentType) && target == raster.FormatPDF {
		return nil, newError(CodeInvalidInput, "PDFからPDFへの変換は不要です。", nil)
	}

	return s.prepareJob(ctx, OperationConvert, req.Data, req.Filename, req.ContentType, target, 0)
}

// PrepareCompressJob は非同期のサイズ圧縮に備えて入力を検証し保存します。
func (s *Service) PrepareCompressJob(ctx context.Context, req *CompressRequest) (*JobManifest, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || len(req.Data) == 0 {
		return nil, newError(CodeEmptyInput, "ファイルが空です。", nil)
	}
	if !compressAllowed(req.Filename, req.ContentType) {
		return nil, newError(CodeUnsupportedSourceType, "この形式のファイルは圧縮できません。", nil)
	}

	return s.prepareJob(ctx, OperationCompress, req.Data, req.Filename, req.ContentType, "", raster.ClampQuality(req.Quality))
}

func (s *Service) prepareJob(ctx context.Context, op OperationType, data []byte, filename, contentType string, target raster.Format, quality int) (*JobManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := 0
	if isPDFSource(filename, contentType) {
		count, err := pdf.PageCount(data)
		if err != nil {
			return nil, wrapPDFError(err)
		}
		pages = count
	}

	ws, err := s.createWorkspace()
	if err != nil {
		return nil, err
	}

	storedName := "input" + strings.ToLower(filepath.Ext(filename))
	if err := os.WriteFile(filepath.Join(ws.inDir, storedName), data, 0o640); err != nil {
		_ = removeDir(ws.dir)
		return nil, fmt.Errorf("入力ファイルの保存に失敗しました: %w", err)
	}

	manifest := &JobManifest{
		JobID:     ws.jobID,
		Operation: op,
		File: JobFile{
			StoredName:   storedName,
			OriginalName: filepath.Base(filename),
			ContentType:  contentType,
			Size:         int64(len(data)),
			Pages:        pages,
		},
		Target:    target,
		Quality:   quality,
		CreatedAt: s.now().UTC(),
	}
	if err := writeManifest(ws.dir, manifest); err != nil {
		_ = removeDir(ws.dir)
		return nil, fmt.Errorf("ジョブマニフェストの保存に失敗しました: %w", err)
	}

	return manifest, nil
}

// RunJob はジョブIDに対応する変換・圧縮を実行します。
// 成果物はダウンロードストアへ移り、ワークスペースは実行後に消えます。
func (s *Service) RunJob(ctx context.Context, jobID string, reporter ProgressReporter) (*Result, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ws := s.workspaceFor(jobID)
	manifest, err := loadManifest(ws.dir)
	if err != nil {
		_ = removeDir(ws.dir)
		return nil, err
	}

	reportProgress(reporter, "load", 10)
	data, err := os.ReadFile(filepath.Join(ws.inDir, manifest.File.StoredName))
	if err != nil {
		_ = removeDir(ws.dir)
		return nil, fmt.Errorf("入力ファイルの読み込みに失敗しました: %w", err)
	}

	var (
		result *Result
		runErr error
	)

	reportProgress(reporter, "process", 40)
	switch manifest.Operation {
	case OperationConvert:
		result, runErr = s.Convert(ctx, &ConvertRequest{
			Data:        data,
			Filename:    manifest.File.OriginalName,
			ContentType: manifest.File.ContentType,
			Target:      manifest.Target,
		})
	case OperationCompress:
		result, runErr = s.Compress(ctx, &CompressRequest{
			Data:        data,
			Filename:    manifest.File.OriginalName,
			ContentType: manifest.File.ContentType,
			Quality:     manifest.Quality,
		})
	default:
		_ = removeDir(ws.dir)
		return nil, fmt.Errorf("unsupported operation: %s", manifest.Operation)
	}

	if runErr != nil {
		if cleanupErr := removeDir(ws.dir); cleanupErr != nil {
			runErr = fmt.Errorf("%w (ワークスペースの削除にも失敗しました: %v)", runErr, cleanupErr)
		}
		return nil, runErr
	}

	reportProgress(reporter, "write", 90)
	if err := removeDir(ws.dir); err != nil {
		return nil, fmt.Errorf("ワークスペースの削除に失敗しました: %w", err)
	}

	reportProgress(reporter, "completed", 100)
	return result, nil
}

// DiscardJob は未実行ジョブのワークスペースを破棄します。
func (s *Service) DiscardJob(jobID string) error {
	if jobID == "" {
		return nil
	}
	return removeDir(s.workspaceFor(jobID).dir)
}
