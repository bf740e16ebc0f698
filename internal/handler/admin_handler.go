package handler

import (
	"net/http"
	"strconv"

	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 维护入口：手工对账、孤儿清理。可重复调用，可与流量并发
type AdminHandler struct {
	rec *service.ReconcileService
}

func NewAdminHandler(rec *service.ReconcileService) *AdminHandler {
	return &AdminHandler{rec: rec}
}

// ReconcileProfile 定向修一个Profile的计数
func (h *AdminHandler) ReconcileProfile(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid user_id"})
		return
	}
	report, err := h.rec.Targeted(c.Request.Context(), []uint64{userID})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondReport(c, report)
}

// ReconcileAll 全量修计数
func (h *AdminHandler) ReconcileAll(c *gin.Context) {
	report, err := h.rec.ReconcileAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondReport(c, report)
}

// Cleanup 孤儿清理+全量对账
func (h *AdminHandler) Cleanup(c *gin.Context) {
	edges, records, report, err := h.rec.CleanupOrphans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{
		"orphan_edges_removed":   edges,
		"orphan_records_removed": records,
		"report":                 report,
	}
	if report.DriftDetected() {
		resp["code"] = pkg.CodeDriftDetected
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) respondReport(c *gin.Context, report service.ReconcileReport) {
	resp := gin.H{"report": report}
	// 修正数>0属于信息性信号，不是错误
	if report.DriftDetected() {
		resp["code"] = pkg.CodeDriftDetected
	}
	c.JSON(http.StatusOK, resp)
}
