package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次写请求
	router := gin.New()
	router.Use(RateLimit(2, 200*time.Millisecond))
	router.Any("/plans", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(method, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/plans", nil)
		req.Header.Set("X-Real-IP", ip)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w1 := doReq(http.MethodPost, "192.168.1.1")
	w2 := doReq(http.MethodPut, "192.168.1.1")
	w3 := doReq(http.MethodDelete, "192.168.1.1")

	assert.Equal(t, 200, w1.Code)
	assert.Equal(t, 200, w2.Code)
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")

	// 读请求不计数
	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, doReq(http.MethodGet, "192.168.1.1").Code)
	}

	// 不同 IP 互不影响
	assert.Equal(t, 200, doReq(http.MethodPost, "192.168.1.2").Code)
	assert.Equal(t, 200, doReq(http.MethodPost, "192.168.1.2").Code)

	// 窗口过后恢复
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 200, doReq(http.MethodPost, "192.168.1.1").Code)
}
