package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"github.com/mmdatafocus/vehicle_sales_backend/importer"
	"github.com/mmdatafocus/vehicle_sales_backend/utils"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

// uploadHandler accepts a multipart .xlsx upload and schedules ingestion.
// The response carries only the job id; clients poll the status endpoint for
// progress and the eventual outcome, including parse failures.
func uploadHandler(runner *importer.Runner, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type: only .xlsx files are allowed"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadHandler", "Open", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadHandler", "ReadAll", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
			return
		}
		if int64(len(data)) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		jobID := runner.Start(data)

		logger.WithFields(logrus.Fields{
			"job_id":   jobID,
			"filename": fileHeader.Filename,
			"size":     len(data),
		}).Info("[upload.accepted]")

		c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
	}
}

func jobStatusHandler(jobs *importer.JobRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("jobId")
		job, err := jobs.GetStatus(jobID)
		if err != nil {
			if errors.Is(err, utils.ErrorJobNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}
