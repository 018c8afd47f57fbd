package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"tokenintel/internal/intel"
)

type stubService struct {
	lastN int
}

func (s *stubService) WhaleReport() string      { return "whale report body" }
func (s *stubService) DailySummaryText() string { return "daily summary body" }
func (s *stubService) RecentAlertsText(n int) string {
	s.lastN = n
	return "alerts body"
}
func (s *stubService) Diagnostics() intel.Diagnostics {
	return intel.Diagnostics{KnownWallets: 3, WhaleCount: 1}
}

func setupTestRouter(svc IntelService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewIntel(svc)
	r.GET("/api/whales", h.Whales)
	r.GET("/api/daily", h.Daily)
	r.GET("/api/alerts", h.Alerts)
	r.GET("/api/diagnostics", h.Diagnostics)
	return r
}

func TestIntelEndpoints(t *testing.T) {
	svc := &stubService{}
	r := setupTestRouter(svc)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("whales", func(t *testing.T) {
		w := get("/api/whales")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "whale report body", w.Body.String())
	})

	t.Run("daily", func(t *testing.T) {
		w := get("/api/daily")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "daily summary body", w.Body.String())
	})

	t.Run("alerts default n", func(t *testing.T) {
		w := get("/api/alerts")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 10, svc.lastN)
	})

	t.Run("alerts custom n capped", func(t *testing.T) {
		get("/api/alerts?n=25")
		assert.Equal(t, 25, svc.lastN)

		get("/api/alerts?n=5000")
		assert.Equal(t, 100, svc.lastN)
	})

	t.Run("alerts rejects bad n", func(t *testing.T) {
		w := get("/api/alerts?n=abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = get("/api/alerts?n=-2")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("diagnostics json", func(t *testing.T) {
		w := get("/api/diagnostics")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"knownWallets":3`)
		assert.Contains(t, w.Body.String(), `"whaleCount":1`)
	})
}
