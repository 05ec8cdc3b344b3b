package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scorecard/config"
	"github.com/use-agent/scorecard/models"
	"github.com/use-agent/scorecard/pipeline"
	"github.com/use-agent/scorecard/report"
)

// Generator runs the scorecard pipeline.
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Scorecard returns a handler for POST /api/v1/scorecard.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Generator.Run → resolve, fetch, extract, normalize, render.
//  3. Respond: JSON envelope for "json", the document body otherwise.
//     PDF is sent as an attachment.
func Scorecard(gen Generator, reportCfg config.ReportConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScorecardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, &models.InvalidInputError{Message: err.Error()}, models.TimingInfo{})
			return
		}
		if req.Format == "" {
			req.Format = reportCfg.DefaultFormat
		}
		req.Defaults()

		// ── 2. Run pipeline ─────────────────────────────────────────
		res, err := gen.Run(c.Request.Context(), pipeline.Request{
			URL:           req.URL,
			ManOfTheMatch: req.ManOfTheMatch,
			Format:        req.Format,
			Timeout:       time.Duration(req.Timeout) * time.Second,
		})
		if err != nil {
			respondError(c, err, models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()})
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.Header("X-Source-URL", res.SourceURL)
		c.Header("X-Transport", string(res.Transport))

		if res.Report.Format == models.FormatJSON {
			timing := res.Timing
			timing.TotalMs = time.Since(totalStart).Milliseconds()
			c.JSON(http.StatusOK, models.ScorecardResponse{
				Success:   true,
				SourceURL: res.SourceURL,
				Transport: res.Transport,
				Scorecard: report.WithOverride(res.Scorecard, req.ManOfTheMatch),
				Timing:    timing,
			})
			return
		}

		if res.Report.Format == models.FormatPDF {
			c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
				"filename": AttachmentName(reportCfg.FileName, res.Report),
			}))
		}
		c.Data(http.StatusOK, res.Report.ContentType, res.Report.Data)
	}
}

// AttachmentName returns the download name for rep: the configured base
// name with the report's extension.
func AttachmentName(fileName string, rep *report.Report) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		base = "match_scorecard"
	}
	return base + rep.Extension()
}

// respondError maps a pipeline error to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	detail := models.ToDetail(err)
	if detail.Code == models.ErrCodeInternal && errors.Is(err, context.DeadlineExceeded) {
		detail.Code = models.ErrCodeFetchTimeout
	}

	c.JSON(mapErrorToStatus(detail.Code), models.ScorecardResponse{
		Success: false,
		Error:   detail,
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeResolution:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeFetchBlocked, models.ErrCodeFetchExhausted,
		models.ErrCodeMarkerNotFound, models.ErrCodeMalformedJSON:
		return http.StatusBadGateway // 502
	case models.ErrCodeFetchTimeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}
