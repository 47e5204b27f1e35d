package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"memberreports/internal/apperr"
	"memberreports/internal/auth"
	"memberreports/internal/model"
	"memberreports/internal/reporting"
)

type generateRequest struct {
	Parameters map[string]any `json:"parameters"`
	Format     string         `json:"format"`
}

func (h *Handler) listReports(c *gin.Context) {
	activeOnly, err := queryBool(c, "active_only", true)
	if err != nil {
		badRequest(c, err)
		return
	}
	defs, err := h.catalog.List(c.Request.Context(), c.Query("category"), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	if defs == nil {
		defs = []model.ReportDefinition{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": defs})
}

func (h *Handler) getReport(c *gin.Context) {
	def, err := h.reports.Definition(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *Handler) setReportActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	if err := h.catalog.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	def, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (h *Handler) generateReport(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Format == "" {
		req.Format = string(model.FormatPDF)
	}
	format, err := model.ParseOutputFormat(req.Format)
	if err != nil {
		badRequest(c, err)
		return
	}
	params, err := stringParams(req.Parameters)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.reports.Generate(c.Request.Context(), reporting.Request{
		ReportID:   c.Param("id"),
		Parameters: params,
		Format:     format,
		Owner:      auth.Subject(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"file_id":      res.File.FileID,
		"download_url": res.DownloadURL,
		"filename":     res.File.Filename,
		"generated_at": res.File.GeneratedAt,
		"expires_at":   res.File.ExpiresAt,
		"file_size":    res.File.FileSize,
	})
}

func (h *Handler) previewReport(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	params, err := stringParams(req.Parameters)
	if err != nil {
		writeError(c, err)
		return
	}
	payload, err := h.reports.Preview(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) listFiles(c *gin.Context) {
	owner := auth.Subject(c)
	if owner == "" {
		owner = reporting.DefaultOwner
	}
	files, err := h.reports.ListFiles(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	if files == nil {
		files = []model.GeneratedFile{}
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) downloadFile(c *gin.Context) {
	d, err := h.reports.Download(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.File.Filename))
	c.Data(http.StatusOK, d.ContentType, d.Bytes)
}

// stringParams converts JSON parameter values to the string form the
// report engine parses. Objects and arrays are rejected.
func stringParams(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case bool:
			out[k] = strconv.FormatBool(t)
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("%w: parameter %s must be a string, number or boolean", apperr.ErrValidation, k)
		}
	}
	return out, nil
}
