package api

import (
	"github.com/gin-gonic/gin"

	"fipli/service"
)

func (h *Handler) registerFlows(rg *gin.RouterGroup) {
	rg.GET("/plans/:id/cashflows", h.ListCashFlows)
	rg.POST("/plans/:id/cashflows", h.CreateCashFlow)
	rg.GET("/plans/:id/cashflows/split", h.GetPlanCashFlows)
	rg.GET("/cashflows/:id", h.GetCashFlow)
	rg.PUT("/cashflows/:id", h.UpdateCashFlow)
	rg.DELETE("/cashflows/:id", h.DeleteCashFlow)

	rg.GET("/plans/:id/retirement-income", h.ListRetirementIncome)
	rg.POST("/plans/:id/retirement-income", h.CreateRetirementIncome)
	rg.GET("/retirement-income/:id", h.GetRetirementIncome)
	rg.PUT("/retirement-income/:id", h.UpdateRetirementIncome)
	rg.DELETE("/retirement-income/:id", h.DeleteRetirementIncome)
}

// ListCashFlows 计划的现金流
func (h *Handler) ListCashFlows(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListCashFlows(c.Request.Context(), id)
	list(h, c, v, err)
}

// GetPlanCashFlows 按方向拆分的现金流，year 给定时只返回该年生效的
func (h *Handler) GetPlanCashFlows(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	v, err := h.svc.GetPlanCashFlows(c.Request.Context(), id, year)
	list(h, c, v, err)
}

// CreateCashFlow 创建现金流
func (h *Handler) CreateCashFlow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CashFlowInput
	if !bind(c, &req) {
		return
	}
	cid, err := h.svc.CreateCashFlow(c.Request.Context(), id, req)
	h.created(c, cid, err)
}

// GetCashFlow 现金流详情
func (h *Handler) GetCashFlow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetCashFlow(c.Request.Context(), id)
	found(h, c, v, exists, err, "现金流")
}

// UpdateCashFlow 稀疏更新现金流
func (h *Handler) UpdateCashFlow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CashFlowUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateCashFlow(c.Request.Context(), id, req)
	h.done(c, updated, err, "现金流")
}

// DeleteCashFlow 删除现金流
func (h *Handler) DeleteCashFlow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteCashFlow(c.Request.Context(), id)
	h.done(c, deleted, err, "现金流")
}
