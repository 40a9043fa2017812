package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fipli/config"
	"fipli/service"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// fail 按错误类型选择状态码：校验 400，引用约束 409，其余 500
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: ve.Error(),
			Data:    gin.H{"field": ve.Field},
		})
		return
	}
	var ce *service.ConstraintError
	if errors.As(err, &ce) {
		Conflict(c, ce.Error())
		return
	}
	h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	InternalError(c, SafeErrorMessage(err, "服务器内部错误"))
}
