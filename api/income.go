package api

import (
	"github.com/gin-gonic/gin"

	"fipli/service"
)

// ListRetirementIncome 计划的退休收入
func (h *Handler) ListRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListRetirementIncome(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreateRetirementIncome 创建退休收入，起止年龄按持有人校验
func (h *Handler) CreateRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.IncomeInput
	if !bind(c, &req) {
		return
	}
	rid, err := h.svc.CreateRetirementIncome(c.Request.Context(), id, req)
	h.created(c, rid, err)
}

// GetRetirementIncome 退休收入详情
func (h *Handler) GetRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetRetirementIncome(c.Request.Context(), id)
	found(h, c, v, exists, err, "退休收入")
}

// UpdateRetirementIncome 稀疏更新退休收入
func (h *Handler) UpdateRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.IncomeUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateRetirementIncome(c.Request.Context(), id, req)
	h.done(c, updated, err, "退休收入")
}

// DeleteRetirementIncome 删除退休收入
func (h *Handler) DeleteRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteRetirementIncome(c.Request.Context(), id)
	h.done(c, deleted, err, "退休收入")
}
