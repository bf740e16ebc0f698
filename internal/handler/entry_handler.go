package handler

import (
	"net/http"
	"strconv"

	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type EntryHandler struct {
	svc *service.EntryService
}

func NewEntryHandler(svc *service.EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

type createEntryReq struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req createEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	entry, err := h.svc.Create(c.Request.Context(), userIDFromCtx(c), req.Title, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) Delete(c *gin.Context) {
	entryID, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), entryID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *EntryHandler) List(c *gin.Context) {
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, next, err := h.svc.ListByAuthor(c.Request.Context(), userIDFromCtx(c), cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}
