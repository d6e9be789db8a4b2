package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"

	"go-luminol-analyzer/internal/config"
	apperrors "go-luminol-analyzer/internal/errors"
	"go-luminol-analyzer/internal/logger"
	"go-luminol-analyzer/internal/pipeline"
)

const defaultSensitivity = 50

// AnalysisParams carries the parsed multipart form fields of one capture
// upload.
type AnalysisParams struct {
	ShutterSeconds float64
	ISO            float64
	Sensitivity    float64
	Mode           pipeline.CaptureMode
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(a *pipeline.Analyzer, pool *pipeline.WorkerPool, cfg *config.Config) http.Handler {
	r := gin.Default()

	// The capture frontend is served from a different origin than the
	// analysis API, so CORS stays permissive.
	r.Use(
		cors.Default(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyzeCapture(a, pool))
	r.POST("/preview", analyzeCapture(a, pool))

	return r
}

func analyzeCapture(a *pipeline.Analyzer, pool *pipeline.WorkerPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing capture analysis request")

		data, err := readImageField(c)
		if err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid upload")
			respondError(c, apperrors.GetStatusCode(err), "invalid upload", err)
			return
		}

		params, err := parseParams(c, data)
		if err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid form fields")
			respondError(c, apperrors.GetStatusCode(err), "invalid form fields", err)
			return
		}

		var result *pipeline.AnalysisResult
		var analyzeErr error
		pool.Do(func() {
			result, analyzeErr = a.Analyze(data, params.ShutterSeconds, params.ISO, params.Sensitivity, params.Mode)
		})
		if analyzeErr != nil {
			appErr := apperrors.NewInternalError("image analysis failed", analyzeErr)
			logger.WithError(appErr).WithField("ip", c.ClientIP()).Error("Analysis failed")
			respondError(c, appErr.StatusCode, "image analysis failed", appErr)
			return
		}

		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"path":               c.Request.URL.Path,
			"capture_mode":       string(params.Mode),
			"sensitivity":        params.Sensitivity,
			"status":             result.Status,
			"error_type":         result.ErrorType,
			"blue_detected":      result.BlueDetected,
			"processing_time_ms": duration.Milliseconds(),
		}).Info("Capture analysis completed")

		// Recoverable pipeline failures are ordinary 200 responses; the
		// frontend branches on the embedded status field.
		c.JSON(http.StatusOK, result)
	}
}

// readImageField pulls the uploaded capture bytes out of the multipart form.
func readImageField(c *gin.Context) ([]byte, error) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		return nil, apperrors.NewValidationError("missing image file field", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable image upload", err)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("empty image upload", nil)
	}
	return data, nil
}

// parseParams reads the exposure and tuning fields. Missing shutter or ISO
// falls back to the upload's EXIF block; a capture with neither simply gets
// no normalized metrics.
func parseParams(c *gin.Context, data []byte) (AnalysisParams, error) {
	params := AnalysisParams{
		Sensitivity: defaultSensitivity,
		Mode:        pipeline.ModeJPEG,
	}

	// shutter_seconds is the current field name; exposure_time is the alias
	// older capture apps still send.
	shutterField := c.PostForm("shutter_seconds")
	if shutterField == "" {
		shutterField = c.PostForm("exposure_time")
	}
	if shutterField != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(shutterField), 64)
		if err != nil || v < 0 {
			return params, apperrors.NewValidationError("shutter_seconds must be a non-negative number", err)
		}
		params.ShutterSeconds = v
	}

	if isoField := c.PostForm("iso"); isoField != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(isoField), 64)
		if err != nil || v < 0 {
			return params, apperrors.NewValidationError("iso must be a non-negative number", err)
		}
		params.ISO = v
	}

	if sensField := c.PostForm("sensitivity"); sensField != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(sensField), 64)
		if err != nil {
			return params, apperrors.NewValidationError("sensitivity must be a number", err)
		}
		params.Sensitivity = v
	}

	switch mode := strings.ToLower(strings.TrimSpace(c.PostForm("capture_mode"))); mode {
	case "", "jpeg":
		params.Mode = pipeline.ModeJPEG
	case "raw":
		params.Mode = pipeline.ModeRaw
	default:
		return params, apperrors.NewValidationError("capture_mode must be jpeg or raw", nil)
	}

	if params.ShutterSeconds == 0 || params.ISO == 0 {
		fillExposureFromEXIF(data, &params)
	}
	return params, nil
}

// fillExposureFromEXIF recovers shutter time and ISO from the capture's EXIF
// block when the form omitted them. Failures are expected (PNG uploads and
// stripped JPEGs carry no EXIF) and leave the params untouched.
func fillExposureFromEXIF(data []byte, params *AnalysisParams) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}

	if params.ShutterSeconds == 0 {
		if tag, err := x.Get(exif.ExposureTime); err == nil {
			if num, den, err := tag.Rat2(0); err == nil && den != 0 {
				params.ShutterSeconds = float64(num) / float64(den)
			}
		}
	}
	if params.ISO == 0 {
		if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
			if v, err := tag.Int(0); err == nil {
				params.ISO = float64(v)
			}
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
