package api

import (
	"github.com/gin-gonic/gin"

	"fipli/service"
)

func (h *Handler) registerHouseholds(rg *gin.RouterGroup) {
	rg.GET("/households", h.ListHouseholds)
	rg.POST("/households", h.CreateHousehold)
	rg.GET("/households/:id", h.GetHousehold)
	rg.PUT("/households/:id", h.UpdateHousehold)
	rg.DELETE("/households/:id", h.DeleteHousehold)

	rg.GET("/households/:id/people", h.ListPeople)
	rg.POST("/households/:id/people", h.CreatePerson)
	rg.GET("/people/:id", h.GetPerson)
	rg.PUT("/people/:id", h.UpdatePerson)
	rg.DELETE("/people/:id", h.DeletePerson)
	rg.GET("/people/:id/assets", h.ListPersonAssets)
	rg.GET("/people/:id/retirement-income", h.ListPersonRetirementIncome)

	rg.GET("/households/:id/asset-categories", h.ListAssetCategories)
	rg.POST("/households/:id/asset-categories", h.CreateAssetCategory)
	rg.DELETE("/asset-categories/:id", h.DeleteAssetCategory)
	rg.GET("/households/:id/liability-categories", h.ListLiabilityCategories)
	rg.POST("/households/:id/liability-categories", h.CreateLiabilityCategory)
	rg.DELETE("/liability-categories/:id", h.DeleteLiabilityCategory)
}

// ListHouseholds 家庭列表
func (h *Handler) ListHouseholds(c *gin.Context) {
	v, err := h.svc.ListHouseholds(c.Request.Context())
	list(h, c, v, err)
}

// CreateHousehold 创建家庭
func (h *Handler) CreateHousehold(c *gin.Context) {
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	id, err := h.svc.CreateHousehold(c.Request.Context(), req.Name)
	h.created(c, id, err)
}

// GetHousehold 家庭详情
func (h *Handler) GetHousehold(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetHousehold(c.Request.Context(), id)
	found(h, c, v, exists, err, "家庭")
}

// UpdateHousehold 修改家庭名称
func (h *Handler) UpdateHousehold(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateHousehold(c.Request.Context(), id, req.Name)
	h.done(c, updated, err, "家庭")
}

// DeleteHousehold 删除家庭及其全部数据
func (h *Handler) DeleteHousehold(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteHousehold(c.Request.Context(), id)
	h.done(c, deleted, err, "家庭")
}

// ListPeople 家庭成员
func (h *Handler) ListPeople(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListPeople(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreatePerson 创建成员
func (h *Handler) CreatePerson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PersonInput
	if !bind(c, &req) {
		return
	}
	pid, err := h.svc.CreatePerson(c.Request.Context(), id, req)
	h.created(c, pid, err)
}

// GetPerson 成员详情
func (h *Handler) GetPerson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetPerson(c.Request.Context(), id)
	found(h, c, v, exists, err, "成员")
}

// UpdatePerson 稀疏更新成员
func (h *Handler) UpdatePerson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.PersonUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdatePerson(c.Request.Context(), id, req)
	h.done(c, updated, err, "成员")
}

// DeletePerson 删除成员，仍被引用时返回 409
func (h *Handler) DeletePerson(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeletePerson(c.Request.Context(), id)
	h.done(c, deleted, err, "成员")
}

// ListPersonAssets 成员持有的资产
func (h *Handler) ListPersonAssets(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListPersonAssets(c.Request.Context(), id)
	list(h, c, v, err)
}

// ListPersonRetirementIncome 成员持有的退休收入
func (h *Handler) ListPersonRetirementIncome(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListPersonRetirementIncome(c.Request.Context(), id)
	list(h, c, v, err)
}
