package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio-tracker-service/config"
	"folio-tracker-service/dataprovider"
	"folio-tracker-service/middleware"
	"folio-tracker-service/models"
	"folio-tracker-service/services"
	"folio-tracker-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", value, err)
	}
	return parsed
}

type fixedProvider struct {
	valid map[string]bool
}

func (p *fixedProvider) Lookup(ctx context.Context, items []dataprovider.Item) (map[string]dataprovider.Profile, error) {
	profiles := make(map[string]dataprovider.Profile)
	for _, item := range items {
		if p.valid[item.Symbol] {
			profiles[item.Symbol] = dataprovider.Profile{Symbol: item.Symbol, DataSource: item.DataSource}
		}
	}
	return profiles, nil
}

func setupImportRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:              "test-secret-test-secret-test-secret-1234",
		AccessTokenExpireHours: 1,
		AccessTokenPepper:      "test-pepper",
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	provider := &fixedProvider{valid: map[string]bool{"AAPL": true}}
	services.SetGlobalImportService(services.NewImportService(db, provider))

	router := gin.New()
	router.POST("/api/import", middleware.AuthMiddleware(), ImportOrders)
	return router, db
}

func orderJSON(symbol string, day int) string {
	return fmt.Sprintf(`{
		"account_id": "account-1",
		"currency": "USD",
		"data_source": "YAHOO",
		"date": "2026-03-%02dT00:00:00Z",
		"fee": "1.5",
		"quantity": "10",
		"symbol": %q,
		"type": "BUY",
		"unit_price": "100.25"
	}`, day, symbol)
}

func doImport(t *testing.T, router *gin.Engine, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestImportRequiresAuth(t *testing.T) {
	router, _ := setupImportRouter(t)

	recorder := doImport(t, router, "", `{"orders": []}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", recorder.Code)
	}
}

func TestImportEndpointSuccess(t *testing.T) {
	router, db := setupImportRouter(t)

	token, err := utils.GenerateAuthToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate auth token: %v", err)
	}

	body := fmt.Sprintf(`{"orders": [%s]}`, orderJSON("AAPL", 2))
	recorder := doImport(t, router, token, body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var count int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", "user-1").Count(&count).Error; err != nil {
		t.Fatalf("Failed to count orders: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 persisted order, got %d", count)
	}
}

func TestImportEndpointRejectsOversizedBatch(t *testing.T) {
	router, db := setupImportRouter(t)

	token, err := utils.GenerateAuthToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate auth token: %v", err)
	}

	orders := make([]string, services.MaxImportOrders+1)
	for i := range orders {
		orders[i] = orderJSON("AAPL", i%27+1)
	}
	body := fmt.Sprintf(`{"orders": [%s]}`, strings.Join(orders, ","))

	recorder := doImport(t, router, token, body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}

	var response utils.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(response.Error, "batch exceeds the maximum") {
		t.Errorf("Unexpected error message: %s", response.Error)
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no persisted orders, got %d", count)
	}
}

func TestImportEndpointRejectsUnknownSymbol(t *testing.T) {
	router, _ := setupImportRouter(t)

	token, err := utils.GenerateAuthToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate auth token: %v", err)
	}

	body := fmt.Sprintf(`{"orders": [%s]}`, orderJSON("NOSUCH", 2))
	recorder := doImport(t, router, token, body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}

	var response utils.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(response.Error, `orders.0.symbol ("NOSUCH")`) {
		t.Errorf("Unexpected error message: %s", response.Error)
	}
}

func TestImportEndpointDuplicate(t *testing.T) {
	router, db := setupImportRouter(t)

	token, err := utils.GenerateAuthToken("user-1")
	if err != nil {
		t.Fatalf("Failed to generate auth token: %v", err)
	}

	existing := models.Order{
		UserID:     "user-1",
		Currency:   "USD",
		DataSource: "YAHOO",
		Date:       time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Symbol:     "AAPL",
		Type:       "BUY",
	}
	existing.Fee = decimalFromString(t, "1.5")
	existing.Quantity = decimalFromString(t, "10")
	existing.UnitPrice = decimalFromString(t, "100.25")
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("Failed to seed existing order: %v", err)
	}

	body := fmt.Sprintf(`{"orders": [%s]}`, orderJSON("AAPL", 2))
	recorder := doImport(t, router, token, body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", recorder.Code)
	}

	var response utils.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !strings.Contains(response.Error, "orders.0 is a duplicate order") {
		t.Errorf("Unexpected error message: %s", response.Error)
	}
}
