package handler

import (
	"net/http"
	"strconv"

	"Memoir_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

type followReq struct {
	TargetID uint64 `json:"target_id" binding:"required"`
	Action   string `json:"action" binding:"required,oneof=follow unfollow"`
}

// Follow 关注/取关接口，返回乐观预测计数
func (h *FollowHandler) Follow(c *gin.Context) {
	var req followReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	uid := userIDFromCtx(c)
	var (
		res *service.FollowResult
		err error
	)
	if req.Action == "follow" {
		res, err = h.svc.Follow(c.Request.Context(), uid, req.TargetID)
	} else {
		res, err = h.svc.Unfollow(c.Request.Context(), uid, req.TargetID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Relation 获取关注状态
func (h *FollowHandler) Relation(c *gin.Context) {
	target, _ := strconv.ParseUint(c.Query("target_id"), 10, 64)
	ok, err := h.svc.IsFollowing(c.Request.Context(), userIDFromCtx(c), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_following": ok})
}

// ListFollowers 粉丝列表
func (h *FollowHandler) ListFollowers(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, next, err := h.svc.ListFollowers(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}

// ListFollowings 关注列表
func (h *FollowHandler) ListFollowings(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	cursor, _ := strconv.ParseUint(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, next, err := h.svc.ListFollowings(c.Request.Context(), userID, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}
