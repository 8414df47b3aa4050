// Package convert は画像・PDFの形式変換とサイズ圧縮のコアを提供します。
// HTTP層はバイト列と操作内容を渡し、成果物のメタデータを受け取るだけの
// 薄い協調レイヤーであり、コアはリクエスト/レスポンスの枠組みに依存しません。
package convert

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/image-forge/internal/cache"
	"github.com/yourusername/image-forge/internal/config"
	"github.com/yourusername/image-forge/internal/pdf"
	"github.com/yourusername/image-forge/internal/raster"
)

// Service は変換・圧縮のオーケストレーターです。
// 入力の分類、各コンポーネントへのディスパッチ、成果物のストア保存を担います。
type Service struct {
	cfg    *config.Config
	codecs *raster.Registry
	store  cache.Store

	now      func() time.Time
	newToken func() string
}

// NewService は Service を初期化します。
func NewService(cfg *config.Config, codecs *raster.Registry, store cache.Store) *Service {
	return &Service{
		cfg:    cfg,
		codecs: codecs,
		store:  store,
		now:    time.Now,
		newToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// 圧縮対象として受け付ける拡張子と Content-Type の許可リスト。
var (
	compressExtAllowed = map[string]struct{}{
		".heic": {}, ".heif": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".pdf": {},
	}
	compressTypeAllowed = map[string]struct{}{
		"image/heic": {}, "image/heif": {}, "image/png": {}, "image/jpeg": {}, "application/pdf": {},
	}
)

// Convert は入力を指定形式へ変換し、成果物をダウンロードストアへ保存します。
func (s *Service) Convert(ctx context.Context, req *ConvertRequest) (*Result, error) {
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

	if isPDFSource(req.Filename, req.ContentType) {
		return s.convertPDF(ctx, req, target)
	}
	return s.convertRaster(ctx, req, target)
}

func (s *Service) convertPDF(ctx context.Context, req *ConvertRequest, target raster.Format) (*Result, error) {
	if target == raster.FormatPDF {
		return nil, newError(CodeInvalidInput, "PDFからPDFへの変換は不要です。", nil)
	}

	pages, err := pdf.RenderPages(ctx, req.Data, s.convertScale())
	if err != nil {
		return nil, wrapPDFError(err)
	}

	encoded := make([][]byte, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.encodePage(page, target)
		if err != nil {
			return nil, err
		}
		encoded[i] = data
		pages[i] = nil // レンダリング済みページは即座に解放する
	}

	name := stem(req.Filename)
	meta := &ConvertMeta{
		Target: target,
		Pages:  len(encoded),
		Source: sourceMeta(req.Filename, req.Data, len(encoded)),
	}

	// 1ページならそのまま、複数ページはZIPへまとめる
	if len(encoded) == 1 {
		return s.storeResult(ctx, OperationConvert, &cache.Artifact{
			Filename: name + "." + string(target),
			MIME:     target.MIME(),
			Data:     encoded[0],
		}, strings.ToUpper(string(target)), meta)
	}

	archive, err := packPages(name, string(target), encoded)
	if err != nil {
		return nil, err
	}
	return s.storeResult(ctx, OperationConvert, &cache.Artifact{
		Filename: name + ".zip",
		MIME:     raster.FormatZIP.MIME(),
		Data:     archive,
	}, "ZIP", meta)
}

func (s *Service) convertRaster(ctx context.Context, req *ConvertRequest, target raster.Format) (*Result, error) {
	img, err := s.decode(req.Data, req.Filename, req.ContentType)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch target {
	case raster.FormatPDF:
		// 1px = 1pt の単一ページPDFとして包む
		data, err = pdf.FromImages(ctx, []image.Image{img}, 1.0, s.jpegQuality())
	default:
		data, err = s.encodePage(img, target)
	}
	if err != nil {
		return nil, err
	}

	meta := &ConvertMeta{
		Target: target,
		Pages:  1,
		Source: sourceMeta(req.Filename, req.Data, 0),
	}
	return s.storeResult(ctx, OperationConvert, &cache.Artifact{
		Filename: stem(req.Filename) + "." + string(target),
		MIME:     target.MIME(),
		Data:     data,
	}, strings.ToUpper(string(target)), meta)
}

// Compress は入力を品質ダイヤルに応じて縮小し、成果物をストアへ保存します。
func (s *Service) Compress(ctx context.Context, req *CompressRequest) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || len(req.Data) == 0 {
		return nil, newError(CodeEmptyInput, "ファイルが空です。", nil)
	}
	if !compressAllowed(req.Filename, req.ContentType) {
		return nil, newError(CodeUnsupportedSourceType, "この形式のファイルは圧縮できません。", nil)
	}

	quality := raster.ClampQuality(req.Quality)

	var (
		data []byte
		ext  string
		mime string
		err  error
	)
	switch {
	case isPDFSource(req.Filename, req.ContentType):
		// 低品質ほど小さく描画してから1つのPDFへ再構築する
		scale := pdf.CompressScale(quality)
		var pages []image.Image
		pages, err = pdf.RenderPages(ctx, req.Data, scale)
		if err != nil {
			return nil, wrapPDFError(err)
		}
		data, err = pdf.FromImages(ctx, pages, scale, quality)
		ext, mime = "pdf", raster.FormatPDF.MIME()

	case isPNGSource(req.Filename, req.ContentType):
		var img image.Image
		img, err = s.decode(req.Data, req.Filename, req.ContentType)
		if err != nil {
			return nil, err
		}
		data, err = raster.CompressPNG(img, quality)
		ext, mime = "png", raster.FormatPNG.MIME()

	default:
		// JPEG および HEIC/HEIF はJPEGとして再エンコードする
		var img image.Image
		img, err = s.decode(req.Data, req.Filename, req.ContentType)
		if err != nil {
			return nil, err
		}
		data, err = raster.CompressJPEG(img, quality)
		ext, mime = "jpg", raster.FormatJPG.MIME()
	}
	if err != nil {
		return nil, err
	}

	meta := &CompressMeta{
		OriginalSize: int64(len(req.Data)),
		OutputSize:   int64(len(data)),
		SavedBytes:   int64(len(req.Data) - len(data)),
		SavedPercent: computeSavedPercent(int64(len(req.Data)), int64(len(data))),
		Quality:      quality,
		Source:       sourceMeta(req.Filename, req.Data, 0),
	}
	return s.storeResult(ctx, OperationCompress, &cache.Artifact{
		Filename: stem(req.Filename) + "." + ext,
		MIME:     mime,
		Data:     data,
	}, "", meta)
}

// Inspect はアップロードされたPDFを検証し、基本メタデータを返します。
func (s *Service) Inspect(ctx context.Context, req *InspectRequest) (*InspectResult, error) {
	if req == nil || len(req.Data) == 0 {
		return nil, newError(CodeEmptyInput, "ファイルが空です。", nil)
	}
	if !isPDFSource(req.Filename, req.ContentType) {
		return nil, newError(CodeInvalidInput, "PDFファイルを選択してください。", nil)
	}

	pages, err := pdf.PageCount(req.Data)
	if err != nil {
		return nil, wrapPDFError(err)
	}
	return &InspectResult{
		Source: sourceMeta(req.Filename, req.Data, pages),
	}, nil
}

// Download はトークンに対応する成果物を返します。
func (s *Service) Download(ctx context.Context, token string) (*cache.Artifact, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError(CodeNotFound, "ファイルが見つかりませんでした。", nil)
	}
	artifact, err := s.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, newError(CodeNotFound, "ファイルが見つかりませんでした。", err)
		}
		return nil, err
	}
	return artifact, nil
}

func (s *Service) storeResult(ctx context.Context, op OperationType, artifact *cache.Artifact, label string, meta any) (*Result, error) {
	token := s.newToken()
	if err := s.store.Put(ctx, token, artifact); err != nil {
		return nil, err
	}
	return &Result{
		Token:          token,
		Operation:      op,
		OutputFilename: artifact.Filename,
		MIME:           artifact.MIME,
		OutputSize:     int64(len(artifact.Data)),
		Label:          label,
		Meta:           meta,
	}, nil
}

func (s *Service) decode(data []byte, filename, contentType string) (image.Image, error) {
	img, err := s.codecs.Decode(data, filename, contentType)
	if err != nil {
		return nil, newError(CodeDecodeFailed, "画像をデコードできませんでした。ファイルを確認してください。", err)
	}
	return img, nil
}

func (s *Service) encodePage(img image.Image, target raster.Format) ([]byte, error) {
	switch target {
	case raster.FormatPNG:
		return raster.EncodePNG(img)
	case raster.FormatJPG:
		return raster.EncodeJPEG(img, s.jpegQuality())
	}
	return nil, newError(CodeUnsupportedFormat, "対応していない出力形式です。", nil)
}

func (s *Service) convertScale() float64 {
	if s.cfg != nil && s.cfg.ConvertRenderScale > 0 {
		return s.cfg.ConvertRenderScale
	}
	return pdf.DefaultConvertScale
}

func (s *Service) jpegQuality() int {
	if s.cfg != nil && s.cfg.JPEGQuality >= 1 && s.cfg.JPEGQuality <= 100 {
		return s.cfg.JPEGQuality
	}
	return raster.DefaultJPEGQuality
}

func wrapPDFError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, pdf.ErrNoPages), errors.Is(err, pdf.ErrInvalidDocument):
		return newError(CodeInvalidDocument, "PDFを読み込めませんでした。ファイルを確認してください。", err)
	case errors.Is(err, pdf.ErrEmptyPageSet):
		return newError(CodeEmptyInput, "PDFに格納するページがありません。", err)
	}
	return err
}

// isPDFSource は拡張子が .pdf または申告 Content-Type が application/pdf の
// 場合にPDFとして扱います。それ以外はラスタ画像として扱われます。
func isPDFSource(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return declaredType(contentType) == "application/pdf"
}

func isPNGSource(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return true
	}
	return declaredType(contentType) == "image/png"
}

func compressAllowed(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := compressExtAllowed[ext]; ok {
		return true
	}
	if _, ok := compressTypeAllowed[declaredType(contentType)]; ok {
		return true
	}
	return false
}

func declaredType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// stem はファイル名から拡張子を除いた部分を返します。空なら "converted" です。
func stem(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return "converted"
	}
	return base
}

func sourceMeta(filename string, data []byte, pages int) SourceFileMeta {
	return SourceFileMeta{
		Name:  filepath.Base(filename),
		Size:  int64(len(data)),
		Pages: pages,
	}
}
