package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/image-forge/internal/cache"
	"github.com/yourusername/image-forge/internal/raster"
	"github.com/yourusername/image-forge/internal/units"
)

// JobRunner はジョブを実行できるサービスが実装します。
type JobRunner interface {
	RunJob(ctx context.Context, jobID string, reporter ProgressReporter) (*Result, error)
	DiscardJob(jobID string) error
}

// ConvertService は形式変換ジョブの準備と実行を提供します。
type ConvertService interface {
	JobRunner
	PrepareConvertJob(ctx context.Context, req *ConvertRequest) (*JobManifest, error)
}

// CompressService はサイズ圧縮ジョブの準備と実行を提供します。
type CompressService interface {
	JobRunner
	PrepareCompressJob(ctx context.Context, req *CompressRequest) (*JobManifest, error)
}

// InspectService はPDF検証を提供します。
type InspectService interface {
	Inspect(ctx context.Context, req *InspectRequest) (*InspectResult, error)
}

// DownloadService は成果物の取り出しを提供します。
type DownloadService interface {
	Download(ctx context.Context, token string) (*cache.Artifact, error)
}

// JobScheduler はジョブを非同期キューに投入するためのインターフェースです。
type JobScheduler interface {
	Schedule(ctx context.Context, op OperationType, jobID string) error
}

// HandlerOptions は同期/非同期切り替えとアップロード上限の設定です。
type HandlerOptions struct {
	Scheduler           JobScheduler
	MaxFileSize         int64
	AsyncThresholdBytes int64
	AsyncThresholdPages int
}

// ConvertHandler は POST /api/convert のハンドラーを返します。
func ConvertHandler(svc ConvertService, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		upload, err := readUpload(c, opts.MaxFileSize)
		if err != nil {
			respondWithError(c, err)
			return
		}

		target := strings.TrimSpace(c.PostForm("target"))
		if target == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": "出力形式を指定してください。例: png, jpg, pdf",
			})
			return
		}

		manifest, err := svc.PrepareConvertJob(c.Request.Context(), &ConvertRequest{
			Data:        upload.data,
			Filename:    upload.filename,
			ContentType: upload.contentType,
			Target:      raster.Format(target),
		})
		if err != nil {
			respondWithError(c, err)
			return
		}

		if shouldProcessAsync(manifest, opts) {
			if err := opts.Scheduler.Schedule(c.Request.Context(), manifest.Operation, manifest.JobID); err != nil {
				if cleanupErr := svc.DiscardJob(manifest.JobID); cleanupErr != nil {
					err = fmt.Errorf("%w (cleanup failed: %v)", err, cleanupErr)
				}
				respondWithError(c, err)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"jobId": manifest.JobID})
			return
		}

		result, err := svc.RunJob(c.Request.Context(), manifest.JobID, nil)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resultResponse(result))
	}
}

// CompressHandler は POST /api/compress のハンドラーを返します。
func CompressHandler(svc CompressService, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		upload, err := readUpload(c, opts.MaxFileSize)
		if err != nil {
			respondWithError(c, err)
			return
		}

		quality, err := parseQuality(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": err.Error(),
			})
			return
		}

		manifest, err := svc.PrepareCompressJob(c.Request.Context(), &CompressRequest{
			Data:        upload.data,
			Filename:    upload.filename,
			ContentType: upload.contentType,
			Quality:     quality,
		})
		if err != nil {
			respondWithError(c, err)
			return
		}

		if shouldProcessAsync(manifest, opts) {
			if err := opts.Scheduler.Schedule(c.Request.Context(), manifest.Operation, manifest.JobID); err != nil {
				if cleanupErr := svc.DiscardJob(manifest.JobID); cleanupErr != nil {
					err = fmt.Errorf("%w (cleanup failed: %v)", err, cleanupErr)
				}
				respondWithError(c, err)
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"jobId": manifest.JobID})
			return
		}

		result, err := svc.RunJob(c.Request.Context(), manifest.JobID, nil)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, resultResponse(result))
	}
}

// InspectHandler は POST /api/inspect のハンドラーを返します。
func InspectHandler(svc InspectService, opts HandlerOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		upload, err := readUpload(c, opts.MaxFileSize)
		if err != nil {
			respondWithError(c, err)
			return
		}

		result, err := svc.Inspect(c.Request.Context(), &InspectRequest{
			Data:        upload.data,
			Filename:    upload.filename,
			ContentType: upload.contentType,
		})
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// DownloadHandler は GET /api/download/:token のハンドラーを返します。
func DownloadHandler(svc DownloadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		artifact, err := svc.Download(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondWithError(c, err)
			return
		}

		encodedName := url.PathEscape(artifact.Filename)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", artifact.Filename, encodedName))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, artifact.MIME, artifact.Data)
	}
}

type unitsRequest struct {
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Value    float64 `json:"value"`
}

// UnitsHandler は POST /api/units/convert のハンドラーを返します。
func UnitsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unitsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    CodeInvalidInput,
				"message": "category, unit, value を含むJSONを送信してください。",
			})
			return
		}

		rows, err := units.Convert(req.Category, req.Unit, req.Value)
		if err != nil {
			switch {
			case errors.Is(err, units.ErrUnknownCategory):
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    CodeUnknownCategory,
					"message": "存在しないカテゴリです。",
				})
			case errors.Is(err, units.ErrUnknownUnit):
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    CodeUnknownUnit,
					"message": "カテゴリ内に存在しない単位です。",
				})
			default:
				respondWithError(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"category": strings.ToLower(strings.TrimSpace(req.Category)),
			"rows":     rows,
		})
	}
}

// UnitsCategoriesHandler は GET /api/units/categories のハンドラーを返します。
func UnitsCategoriesHandler() gin.HandlerFunc {
	type unitInfo struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
	type categoryInfo struct {
		Name  string     `json:"name"`
		Units []unitInfo `json:"units"`
	}

	cats := units.Categories()
	payload := make([]categoryInfo, len(cats))
	for i, cat := range cats {
		infos := make([]unitInfo, len(cat.Units))
		for j, u := range cat.Units {
			infos[j] = unitInfo{Name: u.Name, Symbol: u.Symbol}
		}
		payload[i] = categoryInfo{Name: cat.Name, Units: infos}
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": payload})
	}
}

func shouldProcessAsync(manifest *JobManifest, opts HandlerOptions) bool {
	if manifest == nil || opts.Scheduler == nil {
		return false
	}

	if opts.AsyncThresholdBytes > 0 && manifest.File.Size > opts.AsyncThresholdBytes {
		return true
	}
	if opts.AsyncThresholdPages > 0 && manifest.File.Pages > opts.AsyncThresholdPages {
		return true
	}

	return false
}

type uploadPayload struct {
	data        []byte
	filename    string
	contentType string
}

func readUpload(c *gin.Context, maxSize int64) (*uploadPayload, error) {
	header, err := extractSingleFile(c)
	if err != nil {
		return nil, newError(CodeInvalidInput, err.Error(), nil)
	}
	if maxSize > 0 && header.Size > maxSize {
		return nil, newError(CodeLimitExceeded, "ファイルサイズが上限を超えています。", nil)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("アップロードファイルのオープンに失敗しました: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxSize > 0 {
		reader = io.LimitReader(file, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("アップロードファイルの読み込みに失敗しました: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, newError(CodeLimitExceeded, "ファイルサイズが上限を超えています。", nil)
	}

	return &uploadPayload{
		data:        data,
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
	}, nil
}

func extractSingleFile(c *gin.Context) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("multipart/form-data でファイルを送信してください。")
	}
	if file := form.File["file"]; len(file) > 0 {
		return file[0], nil
	}
	if file := form.File["file[]"]; len(file) > 0 {
		return file[0], nil
	}
	if files := form.File["files"]; len(files) > 0 {
		return files[0], nil
	}
	if alt := form.File["files[]"]; len(alt) > 0 {
		return alt[0], nil
	}
	return nil, errors.New("ファイルを選択してください。")
}

func parseQuality(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.PostForm("quality"))
	if raw == "" {
		return raster.DefaultCompressQuality, nil
	}
	quality, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("quality は整数で指定してください。")
	}
	return quality, nil
}

func resultResponse(result *Result) gin.H {
	return gin.H{
		"token":       result.Token,
		"downloadUrl": "/api/download/" + result.Token,
		"operation":   result.Operation,
		"filename":    result.OutputFilename,
		"mime":        result.MIME,
		"size":        result.OutputSize,
		"label":       result.Label,
		"meta":        result.Meta,
	}
}

func respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		switch apiErr.Code {
		case CodeNotFound:
			status = http.StatusNotFound
		case CodeLimitExceeded:
			status = http.StatusRequestEntityTooLarge
		case CodeInternal:
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    CodeInternal,
			"message": "サーバー内部でエラーが発生しました。",
		})
	}
}
