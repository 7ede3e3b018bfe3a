package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/fintera-rentals/internal/config"
	"github.com/sjperalta/fintera-rentals/internal/middleware"
	"github.com/sjperalta/fintera-rentals/internal/models"
	"github.com/sjperalta/fintera-rentals/internal/repository"
	"github.com/sjperalta/fintera-rentals/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type apiFixture struct {
	db       *gorm.DB
	router   *gin.Engine
	contract *models.Contract
	token    string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Entity{}, &models.Branch{}, &models.Account{}, &models.ReportingPeriod{},
		&models.LedgerTransaction{}, &models.LineItem{}, &models.Contract{},
		&models.RecognitionEntry{}, &models.AuditLog{},
	))

	loc, err := time.LoadLocation("Asia/Dubai")
	require.NoError(t, err)
	cfg := &config.Config{
		Location:               loc,
		VATRate:                decimal.RequireFromString("0.05"),
		DefaultCurrency:        "AED",
		RecognitionConcurrency: 1,
	}

	currency := "AED"
	entity := &models.Entity{Name: "Rentals LLC", CurrencyCode: &currency}
	require.NoError(t, db.Create(entity).Error)
	contract := &models.Contract{
		ContractNumber: "RC-0001",
		EntityID:       &entity.ID,
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		EndDate:        time.Date(2025, 1, 10, 0, 0, 0, 0, loc),
		TotalAmount:    decimal.RequireFromString("1000.00"),
		TotalDays:      10,
		Currency:       "AED",
		Status:         models.ContractStatusActive,
	}
	require.NoError(t, db.Create(contract).Error)

	repos := repository.NewRepositories(db)
	svcs := services.NewServices(repos, nil, nil, nil, cfg)
	h := NewHandlers(svcs, nil, db, loc)

	router := gin.New()
	router.GET("/api/v1/health", h.Health.Index)
	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(testSecret), middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAccountant))
	protected.POST("/recognition/runs", h.Recognition.Run)
	protected.GET("/contracts", h.Contract.Index)
	protected.GET("/contracts/:contract_id", h.Contract.Show)
	protected.GET("/contracts/:contract_id/recognition", h.Contract.Recognition)
	protected.GET("/contracts/:contract_id/recognition/export", h.Contract.Export)
	protected.POST("/contracts/:contract_id/complete", h.Contract.Complete)

	token, err := middleware.IssueToken(testSecret, "ops@example.com", middleware.RoleAccountant, time.Hour)
	require.NoError(t, err)

	return &apiFixture{db: db, router: router, contract: contract, token: token}
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["database"])
}

func TestRecognitionRun(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/recognition/runs", `{"as_of": "2025-01-05"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, float64(1), body["processed"])
	assert.Equal(t, "476.2", body["total_revenue"])
	assert.Equal(t, "23.8", body["total_vat"])
	assert.Equal(t, "done", body["state"])

	// same date again posts nothing
	w = f.do(http.MethodPost, "/api/v1/recognition/runs", `{"run": {"as_of": "2025-01-05"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["skipped"])
}

func TestRecognitionRun_PartialFailureIs207(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.db.Model(f.contract).Update("currency", "USD").Error)

	w := f.do(http.MethodPost, "/api/v1/recognition/runs", `{"as_of": "2025-01-05"}`)
	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["errors"])
}

func TestRecognitionRun_BadRequest(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/recognition/runs", `{"as_of": "05/01/2025"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/v1/recognition/runs", `{"contract_id": "RC-0001"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecognitionRun_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)
	f.token = "garbage"

	w := f.do(http.MethodPost, "/api/v1/recognition/runs", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContractRecognition(t *testing.T) {
	f := newAPIFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/recognition/runs", `{"as_of": "2025-01-02"}`).Code)

	w := f.do(http.MethodGet, "/api/v1/contracts/"+f.contract.ID+"/recognition?as_of=2025-01-05", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "190.48", body["recognized_revenue"])
	assert.Equal(t, "9.52", body["recognized_vat"])
	assert.Equal(t, "285.72", body["outstanding_revenue"])
	assert.Len(t, body["entries"], 4)
}

func TestContractShowAndErrors(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/contracts/"+f.contract.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	contract := decode(t, w)["contract"].(map[string]any)
	assert.Equal(t, "RC-0001", contract["contract_number"])
	assert.Equal(t, "100", contract["daily_rate"])

	w = f.do(http.MethodGet, "/api/v1/contracts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/contracts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContractIndex(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/contracts?status=active", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["contracts"], 1)
	assert.Equal(t, float64(1), body["pagination"].(map[string]any)["total"])
}

func TestContractComplete_InvalidState(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/contracts/"+f.contract.ID+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/v1/contracts/"+f.contract.ID+"/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestContractExport(t *testing.T) {
	f := newAPIFixture(t)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/recognition/runs", `{"as_of": "2025-01-02"}`).Code)

	w := f.do(http.MethodGet, "/api/v1/contracts/"+f.contract.ID+"/recognition/export?format=csv&as_of=2025-01-02", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "recognition_RC-0001_2025-01-02.csv")
	assert.Equal(t, 5, strings.Count(w.Body.String(), "\n"))

	w = f.do(http.MethodGet, "/api/v1/contracts/"+f.contract.ID+"/recognition/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
