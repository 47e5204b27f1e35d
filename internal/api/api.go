// Package api exposes reports, files, members and attendance over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"memberreports/internal/apperr"
	"memberreports/internal/attendance"
	"memberreports/internal/catalog"
	"memberreports/internal/logger"
	"memberreports/internal/member"
	"memberreports/internal/reporting"
)

// Handler serves the /v1 routes.
type Handler struct {
	catalog    *catalog.Service
	reports    *reporting.Service
	members    *member.Service
	attendance *attendance.Service
}

// New creates a handler.
func New(cat *catalog.Service, reports *reporting.Service, members *member.Service, att *attendance.Service) *Handler {
	return &Handler{catalog: cat, reports: reports, members: members, attendance: att}
}

// Register mounts the routes on g. Authentication is the caller's concern.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/reports", h.listReports)
	g.GET("/reports/:id", h.getReport)
	g.PATCH("/reports/:id", h.setReportActive)
	g.POST("/reports/:id/generate", h.generateReport)
	g.POST("/reports/:id/preview", h.previewReport)

	g.GET("/files", h.listFiles)
	g.GET("/files/:file_id/download", h.downloadFile)

	g.GET("/members", h.listMembers)
	g.POST("/members", h.createMember)
	g.GET("/members/check-id/:id", h.checkMemberID)
	g.GET("/members/stats", h.memberStats)
	g.GET("/members/grades", h.memberGrades)
	g.GET("/members/:id", h.getMember)
	g.PUT("/members/:id", h.updateMember)
	g.DELETE("/members/:id", h.deleteMember)

	g.POST("/checkins", h.checkIn)
	g.POST("/checkins/bulk", h.bulkCheckIn)
	g.GET("/attendance", h.attendanceRange)
	g.GET("/attendance/today", h.todayAttendance)
	g.GET("/attendance/stats", h.attendanceStats)
	g.GET("/attendance/members/:id", h.memberHistory)
	g.GET("/attendance/members/:id/summary", h.memberAttendance)
}

// writeError maps error kinds to status codes. Unclassified errors are
// logged and answered with a generic message.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": apperr.ErrExpired.Error()})
		return
	case errors.Is(err, apperr.ErrGone):
		c.JSON(http.StatusGone, gin.H{"error": apperr.ErrGone.Error()})
		return
	case errors.Is(err, apperr.ErrNotImplemented):
		status = http.StatusNotImplemented
	default:
		logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string, fallback bool) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b, nil
}
