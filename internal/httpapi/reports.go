package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"receptionist-platform/internal/reporting"
	"receptionist-platform/pkg/logger"
	"receptionist-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ExportLimiter caps concurrent spreadsheet exports per account. Workbook
// generation holds rows in memory, so one tenant hammering the export button
// must not crowd out everyone else.
type ExportLimiter struct {
	Rdb   *redis.Client
	Limit int
	TTL   time.Duration
}

func (l *ExportLimiter) acquire(c *gin.Context, userID string) (release func(), ok bool) {
	if l == nil || l.Rdb == nil {
		return func() {}, true
	}
	limit := l.Limit
	if limit <= 0 {
		limit = 2
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	ctx := c.Request.Context()
	key := fmt.Sprintf("export:cap:user:%s", userID)
	got, err := utils.AcquireConcurrencyCap(ctx, l.Rdb, key, limit, ttl)
	if err != nil {
		// Redis trouble should not take exports down with it.
		logger.From(ctx).Warn("export cap check failed", "error", err)
		return func() {}, true
	}
	if !got {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent exports"})
		return nil, false
	}
	return func() {
		if err := utils.ReleaseConcurrencyCap(ctx, l.Rdb, key); err != nil {
			logger.From(ctx).Warn("export cap release failed", "error", err)
		}
	}, true
}

// summaryRequest parses from/to/receptionist_id. Missing bounds default to
// the trailing 30 days.
func (h Handlers) summaryRequest(c *gin.Context, uid string) (reporting.SummaryRequest, bool) {
	req := reporting.SummaryRequest{
		UserID:         uid,
		ReceptionistID: c.Query("receptionist_id"),
	}
	var err error
	if req.Range.From, err = parseTimeQuery(c, "from"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
		return reporting.SummaryRequest{}, false
	}
	if req.Range.To, err = parseTimeQuery(c, "to"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
		return reporting.SummaryRequest{}, false
	}
	if req.Range.To.IsZero() {
		req.Range.To = time.Now().UTC()
	}
	if req.Range.From.IsZero() {
		req.Range.From = req.Range.To.AddDate(0, 0, -30)
	}
	return req, true
}

// ReportSummary returns the dashboard aggregates for a range.
func (h Handlers) ReportSummary(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	req, ok := h.summaryRequest(c, uid)
	if !ok {
		return
	}
	sum, err := h.Reports.Summary(c.Request.Context(), req)
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ExportReport streams the call log for a range as an XLSX download.
func (h Handlers) ExportReport(c *gin.Context) {
	uid, ok := h.identity(c)
	if !ok {
		return
	}
	req, ok := h.summaryRequest(c, uid)
	if !ok {
		return
	}
	release, ok := h.Exports.acquire(c, uid)
	if !ok {
		return
	}
	defer release()

	filename := fmt.Sprintf("calls-%s.xlsx", req.Range.To.Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.Reports.ExportXLSX(c.Request.Context(), c.Writer, req); err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		// Headers may already be out; all we can do is log and drop.
		logger.From(c.Request.Context()).Error("export failed", "error", err)
		c.Abort()
	}
}
