package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"fipli/service"
)

// scenarioCreateRequest 创建情景，assumptions 中未出现的字段继承基础假设
type scenarioCreateRequest struct {
	Name        string                  `json:"name" binding:"required,max=100"`
	Assumptions service.AssumptionPatch `json:"assumptions"`
}

func (h *Handler) registerScenarios(rg *gin.RouterGroup) {
	rg.GET("/plans/:id/scenarios", h.ListScenarios)
	rg.POST("/plans/:id/scenarios", h.CreateScenario)
	rg.GET("/scenarios/:id", h.GetScenario)
	rg.PUT("/scenarios/:id", h.UpdateScenario)
	rg.DELETE("/scenarios/:id", h.DeleteScenario)
	rg.GET("/scenarios/:id/growth-adjustments", h.ListScenarioGrowthAdjustments)
	rg.POST("/scenarios/:id/growth-adjustments", h.AddScenarioGrowthAdjustment)
	rg.DELETE("/scenario-growth-adjustments/:id", h.DeleteScenarioGrowthAdjustment)
}

// ListScenarios 计划的情景及覆盖统计
func (h *Handler) ListScenarios(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListScenarios(c.Request.Context(), id)
	list(h, c, v, err)
}

// CreateScenario 创建情景
func (h *Handler) CreateScenario(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req scenarioCreateRequest
	if !bind(c, &req) {
		return
	}
	sid, err := h.svc.CreateScenario(c.Request.Context(), id, req.Name, req.Assumptions)
	h.created(c, sid, err)
}

// GetScenario 情景详情
func (h *Handler) GetScenario(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, exists, err := h.svc.GetScenario(c.Request.Context(), id)
	found(h, c, v, exists, err, "情景")
}

// UpdateScenario 改名并合并假设覆盖
func (h *Handler) UpdateScenario(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ScenarioUpdate
	if !bind(c, &req) {
		return
	}
	updated, err := h.svc.UpdateScenario(c.Request.Context(), id, req)
	h.done(c, updated, err, "情景")
}

// DeleteScenario 删除情景及其全部覆盖
func (h *Handler) DeleteScenario(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteScenario(c.Request.Context(), id)
	h.done(c, deleted, err, "情景")
}

// ListScenarioGrowthAdjustments 情景的增长调整
func (h *Handler) ListScenarioGrowthAdjustments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ListScenarioGrowthAdjustments(c.Request.Context(), id)
	list(h, c, v, err)
}

// AddScenarioGrowthAdjustment 添加情景增长调整，asset_id 为空时作用于整个情景
func (h *Handler) AddScenarioGrowthAdjustment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ScenarioGrowthInput
	if !bind(c, &req) {
		return
	}
	gid, err := h.svc.AddScenarioGrowthAdjustment(c.Request.Context(), id, req)
	h.created(c, gid, err)
}

// DeleteScenarioGrowthAdjustment 删除情景增长调整
func (h *Handler) DeleteScenarioGrowthAdjustment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.svc.DeleteScenarioGrowthAdjustment(c.Request.Context(), id)
	h.done(c, deleted, err, "增长调整")
}

// overrideOps 一类覆盖的读、写、删
type overrideOps[P, O any] struct {
	what string
	put  func(ctx context.Context, scenarioID, entityID uint, p P) (uint, error)
	get  func(ctx context.Context, scenarioID, entityID uint) (O, bool, error)
	del  func(ctx context.Context, scenarioID, entityID uint) (bool, error)
}

// registerOverride 注册 /scenarios/:id/overrides/<path>/:entity_id 的 GET、PUT、DELETE。
// PUT 是幂等的 upsert，请求体中出现的字段才会被覆盖。
func registerOverride[P, O any](h *Handler, rg *gin.RouterGroup, path string, ops overrideOps[P, O]) {
	route := "/scenarios/:id/overrides/" + path + "/:entity_id"
	ids := func(c *gin.Context) (uint, uint, bool) {
		scenarioID, ok := pathID(c, "id")
		if !ok {
			return 0, 0, false
		}
		entityID, ok := pathID(c, "entity_id")
		return scenarioID, entityID, ok
	}
	rg.GET(route, func(c *gin.Context) {
		scenarioID, entityID, ok := ids(c)
		if !ok {
			return
		}
		v, exists, err := ops.get(c.Request.Context(), scenarioID, entityID)
		found(h, c, v, exists, err, ops.what+"覆盖")
	})
	rg.PUT(route, func(c *gin.Context) {
		scenarioID, entityID, ok := ids(c)
		if !ok {
			return
		}
		var req P
		if !bind(c, &req) {
			return
		}
		id, err := ops.put(c.Request.Context(), scenarioID, entityID, req)
		if err != nil {
			h.fail(c, err)
			return
		}
		Success(c, CreatedData{ID: id})
	})
	rg.DELETE(route, func(c *gin.Context) {
		scenarioID, entityID, ok := ids(c)
		if !ok {
			return
		}
		deleted, err := ops.del(c.Request.Context(), scenarioID, entityID)
		h.done(c, deleted, err, ops.what+"覆盖")
	})
}

func (h *Handler) registerOverrides(rg *gin.RouterGroup) {
	registerOverride(h, rg, "people", overrideOps[service.PersonPatch, service.PersonOverride]{
		what: "成员", put: h.svc.OverridePerson, get: h.svc.GetPersonOverride, del: h.svc.DeletePersonOverride,
	})
	registerOverride(h, rg, "assets", overrideOps[service.AssetPatch, service.AssetOverride]{
		what: "资产", put: h.svc.OverrideAsset, get: h.svc.GetAssetOverride, del: h.svc.DeleteAssetOverride,
	})
	registerOverride(h, rg, "liabilities", overrideOps[service.LiabilityPatch, service.LiabilityOverride]{
		what: "负债", put: h.svc.OverrideLiability, get: h.svc.GetLiabilityOverride, del: h.svc.DeleteLiabilityOverride,
	})
	registerOverride(h, rg, "cashflows", overrideOps[service.CashFlowPatch, service.CashFlowOverride]{
		what: "现金流", put: h.svc.OverrideCashFlow, get: h.svc.GetCashFlowOverride, del: h.svc.DeleteCashFlowOverride,
	})
	registerOverride(h, rg, "retirement-income", overrideOps[service.IncomePatch, service.IncomeOverride]{
		what: "退休收入", put: h.svc.OverrideRetirementIncome, get: h.svc.GetRetirementIncomeOverride, del: h.svc.DeleteRetirementIncomeOverride,
	})
}
