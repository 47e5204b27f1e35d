package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"memberreports/internal/apperr"
	"memberreports/internal/attendance"
	"memberreports/internal/member"
	"memberreports/internal/model"
)

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.members.List(c.Request.Context(), model.MemberFilter{
		Status: c.Query("status"),
		Grade:  c.Query("grade"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

func (h *Handler) createMember(c *gin.Context) {
	var in member.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.members.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) getMember(c *gin.Context) {
	m, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) updateMember(c *gin.Context) {
	var in member.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.members.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) deleteMember(c *gin.Context) {
	if err := h.members.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) checkMemberID(c *gin.Context) {
	res, err := h.members.CheckID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) memberStats(c *gin.Context) {
	st, err := h.members.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) memberGrades(c *gin.Context) {
	grades, err := h.members.Grades(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grades": grades})
}

func (h *Handler) checkIn(c *gin.Context) {
	var req struct {
		StudentID string `json:"student_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.attendance.CheckIn(c.Request.Context(), req.StudentID)
	if errors.Is(err, apperr.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in today", "record": rec})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) todayAttendance(c *gin.Context) {
	recs, err := h.attendance.Today(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if recs == nil {
		recs = []model.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "total": len(recs)})
}

func (h *Handler) memberAttendance(c *gin.Context) {
	sum, err := h.attendance.MemberSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) bulkCheckIn(c *gin.Context) {
	var req struct {
		Entries []attendance.BulkEntry `json:"attendance_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.attendance.BulkCheckIn(c.Request.Context(), req.Entries)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) attendanceRange(c *gin.Context) {
	res, err := h.attendance.Range(c.Request.Context(), attendance.RangeQuery{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Grade:     c.Query("grade"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) attendanceStats(c *gin.Context) {
	st, err := h.attendance.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) memberHistory(c *gin.Context) {
	q := attendance.HistoryQuery{StartDate: c.Query("start_date"), EndDate: c.Query("end_date")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		q.Limit = n
	}
	hist, err := h.attendance.History(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
