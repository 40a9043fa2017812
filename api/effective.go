package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"fipli/export"
)

func (h *Handler) registerEffective(rg *gin.RouterGroup) {
	rg.GET("/scenarios/:id/effective", effective(h, h.svc.GetEffectivePlan))
	rg.GET("/scenarios/:id/effective/assumptions", effective(h, h.svc.GetEffectiveAssumptions))
	rg.GET("/scenarios/:id/effective/people", effective(h, h.svc.GetEffectivePeople))
	rg.GET("/scenarios/:id/effective/assets", effective(h, h.svc.GetEffectiveAssets))
	rg.GET("/scenarios/:id/effective/liabilities", effective(h, h.svc.GetEffectiveLiabilities))
	rg.GET("/scenarios/:id/effective/cashflows", effective(h, h.svc.GetEffectiveCashFlows))
	rg.GET("/scenarios/:id/effective/income", effective(h, h.svc.GetEffectiveRetirementIncome))
	rg.GET("/scenarios/:id/export", h.ExportScenario)
}

// effective 生效视图读取，情景不存在返回 404
func effective[T any](h *Handler, get func(ctx context.Context, scenarioID uint) (T, bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		v, exists, err := get(c.Request.Context(), id)
		found(h, c, v, exists, err, "情景")
	}
}

// ExportScenario 把情景的生效视图导出为 Excel
func (h *Handler) ExportScenario(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, exists, err := h.svc.GetEffectivePlan(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !exists {
		NotFound(c, "情景不存在")
		return
	}

	f, err := export.Workbook(plan)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成 Excel 失败"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(export.FileName(plan))))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// Integrity 全库完整性检查
func (h *Handler) Integrity(c *gin.Context) {
	report, err := h.svc.CheckIntegrity(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	Success(c, gin.H{
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
		"issues":   report.Issues,
	})
}
