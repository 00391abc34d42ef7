package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoginRateLimit(3, time.Minute))
	router.POST("/login", func(c *gin.Context) {
		c.String(200, "ok")
	})

	do := func() int {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	// 前 3 次放行
	assert.Equal(t, 200, do())
	assert.Equal(t, 200, do())
	assert.Equal(t, 200, do())

	// 第 4 次被限流
	assert.Equal(t, http.StatusTooManyRequests, do())

	// 其他 IP 不受影响
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
}
