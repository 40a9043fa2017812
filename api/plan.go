package api

import (
	"github.com/gin-gonic/gin"

	"fipli/service"
)

func (h *Handler) registerPlans(rg *gin.RouterGroup) {
	rg.GET("/households/:id/plans", h.ListPlans)
	rg.POST("/households/:id/plans", h.CreatePlan)
	rg.GET("/plans/:id", h.GetPlan)
	rg.PUT("/plans/:id", h.UpdatePlan)
	rg.DELETE("/plans/:id", h.DeletePlan)
	rg.GET("/plans/:id/assumptions", h.GetBaseAssumptions)
	rg.PUT("/plans/:id/assumptions", h.UpdateBaseAssumptions)
	rg.GET("/plans/:id/yearly-values", h.ListYearlyValues)
	rg.PUT("/plans/:id/yearly-values", h.SaveYearlyValues)
}

// ListPlans 家庭的计划
func (h *Handler) ListPlans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListPlans(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreatePlan 创建计划及基础假设
func (h *Handler) CreatePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PlanInput
	if !bind(c, &req) {
		return
	}
	pid, err := h.svc.CreatePlan(c.Request.Context(), id, req)
	h.created(c, pid, err)
}

// GetPlan 计划详情
func (h *Handler) GetPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetPlan(c.Request.Context(), id)
	found(h, c, v, exists, err, "计划")
}

// UpdatePlan 稀疏更新计划
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PlanUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdatePlan(c.Request.Context(), id, req)
	h.done(c, updated, err, "计划")
}

// DeletePlan 删除计划及其下全部数据
func (h *Handler) DeletePlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeletePlan(c.Request.Context(), id)
	h.done(c, deleted, err, "计划")
}

// GetBaseAssumptions 计划的基础假设
func (h *Handler) GetBaseAssumptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetBaseAssumptions(c.Request.Context(), id)
	found(h, c, v, exists, err, "计划")
}

// UpdateBaseAssumptions 稀疏更新基础假设
func (h *Handler) UpdateBaseAssumptions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssumptionsInput
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateBaseAssumptions(c.Request.Context(), id, req)
	h.done(c, updated, err, "计划")
}

// ListYearlyValues 预测结果，scenario_id 为空时取基础计划
func (h *Handler) ListYearlyValues(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	scenarioID, ok := queryUint(c, "scenario_id")
	if !ok {
		return
	}
	v, err := h.svc.ListYearlyValues(c.Request.Context(), id, scenarioID)
	list(h, c, v, err)
}

// SaveYearlyValues 整体替换预测结果
func (h *Handler) SaveYearlyValues(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	scenarioID, ok := queryUint(c, "scenario_id")
	if !ok {
		return
	}
	var req []service.YearlyValue
	if !bind(c, &req) {
		return
	}
	if err := h.svc.SaveYearlyValues(c.Request.Context(), id, scenarioID, req); err != nil {
		h.fail(c, err)
		return
	}
	Success(c, nil)
}
