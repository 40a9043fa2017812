package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fipli/config"
	"fipli/database"
	"fipli/export"
	"fipli/service"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, svc *service.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, discardLogger()).Register(r.Group("/api/v1"))
	return &testServer{t: t, router: r}
}

func newSQLiteServer(t *testing.T) *testServer {
	t.Helper()
	store, err := database.Open(config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "api.db"),
		LogLevel: "silent",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newServer(t, service.New(store, service.WithLogger(discardLogger())))
}

// do 发送请求并解析通用响应
func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// create 创建资源并返回新 ID
func (s *testServer) create(path string, body interface{}) uint {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, path, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(resp["data"].(map[string]interface{})["id"].(float64))
}

// seed 家庭 Smith、成员 A、计划、资产类别和一个资产
func (s *testServer) seed() (person, plan, category, asset uint) {
	household := s.create("/api/v1/households", gin.H{"name": "Smith"})
	person = s.create(fmt.Sprintf("/api/v1/households/%d/people", household), gin.H{
		"first_name": "A", "last_name": "Smith", "dob": "1970-01-01", "retirement_age": 65, "final_age": 95,
	})
	plan = s.create(fmt.Sprintf("/api/v1/households/%d/plans", household), gin.H{
		"name": "Retirement", "reference_person_id": person, "creation_year": 2025,
		"assumptions": gin.H{"inflation_rate": 3.0},
	})
	category = s.create(fmt.Sprintf("/api/v1/households/%d/asset-categories", household), gin.H{"name": "Investments"})
	asset = s.create(fmt.Sprintf("/api/v1/plans/%d/assets", plan), gin.H{
		"asset_category_id": category, "name": "Brokerage", "value": 100000, "owner_ids": []uint{person},
	})
	return
}

func TestScenarioOverrideFlow(t *testing.T) {
	s := newSQLiteServer(t)
	_, plan, _, asset := s.seed()

	scenario := s.create(fmt.Sprintf("/api/v1/plans/%d/scenarios", plan), gin.H{"name": "Recession"})
	path := fmt.Sprintf("/api/v1/scenarios/%d/overrides/assets/%d", scenario, asset)

	w, first := s.do(http.MethodPut, path, gin.H{"value": 80000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, second := s.do(http.MethodPut, path, gin.H{"value": 80000})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["data"], second["data"])

	w, resp := s.do(http.MethodGet, fmt.Sprintf("/api/v1/scenarios/%d/effective/assets", scenario), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assets := resp["data"].([]interface{})
	require.Len(t, assets, 1)
	got := assets[0].(map[string]interface{})
	assert.Equal(t, "80000", got["value"])
	assert.Nil(t, got["independent_growth_rate"])
	assert.Equal(t, []interface{}{"value"}, got["overridden"])

	w, resp = s.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	o := resp["data"].(map[string]interface{})
	assert.Equal(t, "80000", o["value"])
	assert.Nil(t, o["independent_growth_rate"])

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/scenarios/%d", scenario), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["data"].(map[string]interface{})["asset_override_count"])

	w, _ = s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScenarioAssumptionsInheritance(t *testing.T) {
	s := newSQLiteServer(t)
	_, plan, _, _ := s.seed()

	scenario := s.create(fmt.Sprintf("/api/v1/plans/%d/scenarios", plan), gin.H{
		"name": "High inflation", "assumptions": gin.H{"inflation_rate": 5.0, "nest_egg_growth_rate": nil},
	})
	w, resp := s.do(http.MethodGet, fmt.Sprintf("/api/v1/scenarios/%d/effective/assumptions", scenario), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, 5.0, data["inflation_rate"])
	assert.Equal(t, 6.0, data["nest_egg_growth_rate"])
	assert.Equal(t, []interface{}{"inflation_rate"}, data["overridden"])
}

func TestErrorMapping(t *testing.T) {
	s := newSQLiteServer(t)
	person, plan, category, _ := s.seed()

	// 校验错误返回 400 和字段名
	w, resp := s.do(http.MethodPut, fmt.Sprintf("/api/v1/people/%d", person), gin.H{"retirement_age": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "retirement_age", resp["data"].(map[string]interface{})["field"])

	// 类别仍被资产使用
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/asset-categories/%d", category), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/plans/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/scenarios/999/effective", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/plans/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/plans/%d/assets?category_id=x", plan), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少必填名称由绑定校验拦截
	w, _ = s.do(http.MethodPost, "/api/v1/households", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 覆盖指向不存在的情景
	w, _ = s.do(http.MethodPut, "/api/v1/scenarios/999/overrides/people/1", gin.H{"final_age": 90})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportScenario(t *testing.T) {
	s := newSQLiteServer(t)
	_, plan, _, asset := s.seed()
	scenario := s.create(fmt.Sprintf("/api/v1/plans/%d/scenarios", plan), gin.H{"name": "Recession"})
	w, _ := s.do(http.MethodPut, fmt.Sprintf("/api/v1/scenarios/%d/overrides/assets/%d", scenario, asset), gin.H{"value": 80000})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/scenarios/%d/export", scenario), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Recession")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetAssets)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "80000", rows[1][2])

	w, _ = s.do(http.MethodGet, "/api/v1/scenarios/999/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntegrityEndpoint(t *testing.T) {
	s := newSQLiteServer(t)
	s.seed()

	w, resp := s.do(http.MethodGet, "/api/v1/integrity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["errors"])
	assert.Equal(t, float64(0), data["warnings"])
}

func TestYearlyValuesEndpoint(t *testing.T) {
	s := newSQLiteServer(t)
	_, plan, _, _ := s.seed()

	path := fmt.Sprintf("/api/v1/plans/%d/yearly-values", plan)
	w, _ := s.do(http.MethodPut, path, []gin.H{{"year": 2026, "value": 110}, {"year": 2025, "value": 100}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := s.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	values := resp["data"].([]interface{})
	require.Len(t, values, 2)
	assert.Equal(t, float64(2025), values[0].(map[string]interface{})["year"])
}

func TestStorageFailureIs500(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .* FROM `households`").WillReturnError(errors.New("connection reset"))

	svc := service.New(database.New(gormDB, config.DriverMySQL), service.WithLogger(discardLogger()))
	s := newServer(t, svc)
	w, resp := s.do(http.MethodGet, "/api/v1/households", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(500), resp["code"])
	require.NoError(t, mock.ExpectationsWereMet())
}
