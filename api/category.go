package api

import (
	"github.com/gin-gonic/gin"
)

// 资产和负债类别按家庭划分，名称在家庭内自由命名

// ListAssetCategories 家庭的资产类别
func (h *Handler) ListAssetCategories(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListAssetCategories(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreateAssetCategory 创建资产类别
func (h *Handler) CreateAssetCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	cid, err := h.svc.CreateAssetCategory(c.Request.Context(), id, req.Name)
	h.created(c, cid, err)
}

// DeleteAssetCategory 删除资产类别，仍有资产使用时返回 409
func (h *Handler) DeleteAssetCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteAssetCategory(c.Request.Context(), id)
	h.done(c, deleted, err, "类别")
}

// ListLiabilityCategories 家庭的负债类别
func (h *Handler) ListLiabilityCategories(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListLiabilityCategories(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreateLiabilityCategory 创建负债类别
func (h *Handler) CreateLiabilityCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	cid, err := h.svc.CreateLiabilityCategory(c.Request.Context(), id, req.Name)
	h.created(c, cid, err)
}

// DeleteLiabilityCategory 删除负债类别
func (h *Handler) DeleteLiabilityCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteLiabilityCategory(c.Request.Context(), id)
	h.done(c, deleted, err, "类别")
}
