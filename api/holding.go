package api

import (
	"github.com/gin-gonic/gin"

	"fipli/service"
)

func (h *Handler) registerHoldings(rg *gin.RouterGroup) {
	rg.GET("/plans/:id/assets", h.ListAssets)
	rg.POST("/plans/:id/assets", h.CreateAsset)
	rg.GET("/assets/:id", h.GetAsset)
	rg.PUT("/assets/:id", h.UpdateAsset)
	rg.DELETE("/assets/:id", h.DeleteAsset)
	rg.GET("/assets/:id/growth-adjustments", h.ListGrowthAdjustments)
	rg.POST("/assets/:id/growth-adjustments", h.AddGrowthAdjustment)
	rg.DELETE("/growth-adjustments/:id", h.DeleteGrowthAdjustment)

	rg.GET("/plans/:id/liabilities", h.ListLiabilities)
	rg.POST("/plans/:id/liabilities", h.CreateLiability)
	rg.GET("/liabilities/:id", h.GetLiability)
	rg.PUT("/liabilities/:id", h.UpdateLiability)
	rg.DELETE("/liabilities/:id", h.DeleteLiability)
}

// ListAssets 计划的资产，可按 category_id 过滤
func (h *Handler) ListAssets(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, ok := queryUint(c, "category_id")
	if !ok {
		return
	}
	v, err := h.svc.ListAssets(c.Request.Context(), id, category)
	list(h, c, v, err)
}

// CreateAsset 创建资产
func (h *Handler) CreateAsset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssetInput
	if !bind(c, &req) {
		return
	}
	aid, err := h.svc.CreateAsset(c.Request.Context(), id, req)
	h.created(c, aid, err)
}

// GetAsset 资产详情（含持有人）
func (h *Handler) GetAsset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetAsset(c.Request.Context(), id)
	found(h, c, v, exists, err, "资产")
}

// UpdateAsset 稀疏更新资产
func (h *Handler) UpdateAsset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AssetUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateAsset(c.Request.Context(), id, req)
	h.done(c, updated, err, "资产")
}

// DeleteAsset 删除资产
func (h *Handler) DeleteAsset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteAsset(c.Request.Context(), id)
	h.done(c, deleted, err, "资产")
}

// ListGrowthAdjustments 资产的增长调整，year 给定时只返回覆盖该年份的区间
func (h *Handler) ListGrowthAdjustments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	v, err := h.svc.ListGrowthAdjustments(c.Request.Context(), id, year)
	list(h, c, v, err)
}

// AddGrowthAdjustment 添加增长调整
func (h *Handler) AddGrowthAdjustment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.GrowthWindowInput
	if !bind(c, &req) {
		return
	}
	gid, err := h.svc.AddGrowthAdjustment(c.Request.Context(), id, req)
	h.created(c, gid, err)
}

// DeleteGrowthAdjustment 删除增长调整
func (h *Handler) DeleteGrowthAdjustment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteGrowthAdjustment(c.Request.Context(), id)
	h.done(c, deleted, err, "增长调整")
}

// ListLiabilities 计划的负债
func (h *Handler) ListLiabilities(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, ok := queryUint(c, "category_id")
	if !ok {
		return
	}
	v, err := h.svc.ListLiabilities(c.Request.Context(), id, category)
	list(h, c, v, err)
}

// CreateLiability 创建负债
func (h *Handler) CreateLiability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.LiabilityInput
	if !bind(c, &req) {
		return
	}
	lid, err := h.svc.CreateLiability(c.Request.Context(), id, req)
	h.created(c, lid, err)
}

// GetLiability 负债详情
func (h *Handler) GetLiability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetLiability(c.Request.Context(), id)
	found(h, c, v, exists, err, "负债")
}

// UpdateLiability 稀疏更新负债
func (h *Handler) UpdateLiability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.LiabilityUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateLiability(c.Request.Context(), id, req)
	h.done(c, updated, err, "负债")
}

// DeleteLiability 删除负债
func (h *Handler) DeleteLiability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteLiability(c.Request.Context(), id)
	h.done(c, deleted, err, "负债")
}
