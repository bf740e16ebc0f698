package handler

import (
	"net/http"

	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

type createProfileReq struct {
	Handle               string `json:"handle" binding:"required"`
	DisplayName          string `json:"display_name" binding:"required"`
	IsJourneyPublic      bool   `json:"is_journey_public"`
	AllowSpecificEntries bool   `json:"allow_specific_entries"`
}

// Create 开启公开分享
func (h *ProfileHandler) Create(c *gin.Context) {
	var req createProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	p, err := h.svc.CreateProfile(c.Request.Context(), userIDFromCtx(c),
		req.Handle, req.DisplayName, req.IsJourneyPublic, req.AllowSpecificEntries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetByHandle 公开主页
func (h *ProfileHandler) GetByHandle(c *gin.Context) {
	p, err := h.svc.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateFlagsReq struct {
	IsJourneyPublic      bool `json:"is_journey_public"`
	AllowSpecificEntries bool `json:"allow_specific_entries"`
}

// UpdateFlags journey级可见性切换
func (h *ProfileHandler) UpdateFlags(c *gin.Context) {
	var req updateFlagsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	if err := h.svc.UpdateFlags(c.Request.Context(), userIDFromCtx(c),
		req.IsJourneyPublic, req.AllowSpecificEntries); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Deactivate 软下线
func (h *ProfileHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), userIDFromCtx(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Reactivate 复活
func (h *ProfileHandler) Reactivate(c *gin.Context) {
	if err := h.svc.Reactivate(c.Request.Context(), userIDFromCtx(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Delete 硬删除，触发扇出对账
func (h *ProfileHandler) Delete(c *gin.Context) {
	reconciled, err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "neighbors_reconciled": reconciled})
}

type batchCountsReq struct {
	UserIDs []uint64 `json:"user_ids" binding:"required"`
}

// BatchWithCounts 列表/发现页批量读
func (h *ProfileHandler) BatchWithCounts(c *gin.Context) {
	var req batchCountsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	list, err := h.svc.GetProfilesWithCounts(c.Request.Context(), req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}
