package handler

import (
	"net/http"
	"strconv"

	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type VisibilityHandler struct {
	svc *service.VisibilityService
}

func NewVisibilityHandler(svc *service.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{svc: svc}
}

type setVisibilityReq struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

// Set 单条entry可见性
func (h *VisibilityHandler) Set(c *gin.Context) {
	entryID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	var req setVisibilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.SetEntryVisibility(c.Request.Context(), userIDFromCtx(c), entryID, *req.IsPublic); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type bulkVisibilityReq struct {
	EntryIDs []uint64 `json:"entry_ids" binding:"required"`
	IsPublic *bool    `json:"is_public" binding:"required"`
}

// Bulk 批量可见性，归属校验不过整单拒绝
func (h *VisibilityHandler) Bulk(c *gin.Context) {
	var req bulkVisibilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	updated, err := h.svc.BulkSetVisibility(c.Request.Context(), userIDFromCtx(c), req.EntryIDs, *req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "updated_count": updated})
}
