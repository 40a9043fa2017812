// Package api 提供计划数据、情景覆盖和生效视图的 HTTP 接口。
package api

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"fipli/service"
)

// Handler 持有业务服务，所有路由共用
type Handler struct {
	svc *service.Service
	log *slog.Logger
}

// NewHandler 创建处理器
func NewHandler(svc *service.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// Register 在 rg 下注册全部接口
func (h *Handler) Register(rg *gin.RouterGroup) {
	h.registerHouseholds(rg)
	h.registerPlans(rg)
	h.registerHoldings(rg)
	h.registerFlows(rg)
	h.registerScenarios(rg)
	h.registerOverrides(rg)
	h.registerEffective(rg)
	rg.GET("/integrity", h.Integrity)
}

// nameRequest 只有名称的创建或改名请求
type nameRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// pathID 解析路径参数，失败时已写入 400
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// queryUint 可选的无符号整数查询参数
func queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		BadRequest(c, "参数 "+name+" 格式错误")
		return nil, false
	}
	u := uint(v)
	return &u, true
}

// queryInt 可选的整数查询参数
func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		BadRequest(c, "参数 "+name+" 格式错误")
		return nil, false
	}
	return &v, true
}

// bind 解析 JSON 请求体，失败时已写入 400
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

// created 写操作返回新 ID 或错误
func (h *Handler) created(c *gin.Context, id uint, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	Created(c, id)
}

// found 读操作：不存在返回 404
func found[T any](h *Handler, c *gin.Context, v T, ok bool, err error, what string) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		NotFound(c, what+"不存在")
		return
	}
	Success(c, v)
}

// list 列表读操作
func list[T any](h *Handler, c *gin.Context, v T, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, v)
}

// done 更新和删除：不存在返回 404
func (h *Handler) done(c *gin.Context, ok bool, err error, what string) {
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		NotFound(c, what+"不存在")
		return
	}
	Success(c, nil)
}
