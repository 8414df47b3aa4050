package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/image-forge/internal/config"
	"github.com/yourusername/image-forge/internal/convert"
	"github.com/yourusername/image-forge/internal/jobs"
)

type mediaJobScheduler struct {
	manager *jobs.Manager
}

func (s *mediaJobScheduler) Schedule(ctx context.Context, op convert.OperationType, jobID string) error {
	_, err := s.manager.Enqueue(ctx, &jobs.TaskPayload{
		JobID:     jobID,
		Operation: op,
	})
	return err
}

func setupJobs(cfg *config.Config, service *convert.Service) (*jobs.Manager, error) {
	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(opt)
	ttlMinutes := cfg.JobExpireMinutes
	if ttlMinutes <= 0 {
		ttlMinutes = 10
	}
	store := jobs.NewStore(redisClient, time.Duration(ttlMinutes)*time.Minute)
	return jobs.NewManager(cfg, service, store, log.Default())
}

func jobStatusHandler(manager *jobs.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		if strings.TrimSpace(jobID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "jobId を指定してください。",
			})
			return
		}

		record, err := manager.GetRecord(c.Request.Context(), jobID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ジョブ情報の取得に失敗しました。",
			})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    "JOB_NOT_FOUND",
				"message": "指定されたジョブは存在しません。",
			})
			return
		}

		payload := gin.H{
			"jobId":     record.JobID,
			"operation": record.Operation,
			"status":    record.Status,
			"progress": gin.H{
				"percent": record.Progress.Percent,
				"stage":   record.Progress.Stage,
				"message": record.Progress.Message,
			},
			"updatedAt": record.UpdatedAt,
		}
		if record.DownloadURL != "" {
			payload["downloadUrl"] = record.DownloadURL
			payload["filename"] = record.Filename
		}
		if record.Meta != nil {
			payload["meta"] = record.Meta
		}
		if record.Error != nil {
			payload["error"] = record.Error
		}

		c.JSON(http.StatusOK, payload)
	}
}
