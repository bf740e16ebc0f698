package handler

import (
	"net/http"

	"Memoir_Community/internal/pkg"

	"github.com/gin-gonic/gin"
)

// 错误码到HTTP状态的统一映射，内部存储错误一律503且不外泄细节
var codeStatus = map[string]int{
	pkg.CodeUnauthorized:     http.StatusUnauthorized,
	pkg.CodeNotFound:         http.StatusNotFound,
	pkg.CodeConflict:         http.StatusConflict,
	pkg.CodeInvalidInput:     http.StatusBadRequest,
	pkg.CodePartialOwnership: http.StatusForbidden,
	pkg.CodeStoreUnavailable: http.StatusServiceUnavailable,
}

func respondError(c *gin.Context, err error) {
	code := pkg.CodeOf(err)
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if code == pkg.CodeStoreUnavailable {
		msg = "storage temporarily unavailable"
	}
	c.JSON(status, gin.H{"code": code, "msg": msg})
}

func userIDFromCtx(c *gin.Context) uint64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint64); ok2 {
			return id
		}
	}
	return 0
}
