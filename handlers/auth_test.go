package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folio-tracker-service/config"
	"folio-tracker-service/database"
	"folio-tracker-service/models"
	"folio-tracker-service/utils"

	"github.com/gin-gonic/gin"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:              "test-secret-test-secret-test-secret-1234",
		AccessTokenExpireHours: 1,
		AccessTokenPepper:      "test-pepper",
	}

	if err := database.InitDB(":memory:"); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	router := gin.New()
	router.POST("/api/users", CreateAnonymousUser)
	router.POST("/api/auth/anonymous", AnonymousLogin)
	return router
}

func TestAnonymousRegisterAndLogin(t *testing.T) {
	router := setupAuthRouter(t)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var response utils.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	data := response.Data.(map[string]interface{})
	accessToken, _ := data["access_token"].(string)
	if accessToken == "" {
		t.Fatal("Expected an access token in the registration response")
	}

	// The access token is never stored in the clear
	var user models.User
	if err := database.GetDB().First(&user).Error; err != nil {
		t.Fatalf("Failed to load created user: %v", err)
	}
	if user.AccessTokenHash == accessToken {
		t.Error("Expected the stored token hash to differ from the token")
	}

	// An analytics record backs the active-user statistics
	var analytics models.Analytics
	if err := database.GetDB().Where("user_id = ?", user.ID).First(&analytics).Error; err != nil {
		t.Fatalf("Expected an analytics record for the new user: %v", err)
	}

	// Login with the returned access token
	body := `{"access_token": "` + accessToken + `"}`
	recorder = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	data = response.Data.(map[string]interface{})
	authToken, _ := data["auth_token"].(string)

	claims, err := utils.ValidateAuthToken(authToken)
	if err != nil {
		t.Fatalf("Login returned an invalid auth token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("Expected auth token for user %s, got %s", user.ID, claims.UserID)
	}

	// Login counts as activity
	if err := database.GetDB().Where("user_id = ?", user.ID).First(&analytics).Error; err != nil {
		t.Fatalf("Failed to reload analytics: %v", err)
	}
	if analytics.ActivityCount != 2 {
		t.Errorf("Expected activity count 2 after login, got %d", analytics.ActivityCount)
	}
}

func TestAnonymousLoginRejectsUnknownToken(t *testing.T) {
	router := setupAuthRouter(t)

	body := `{"access_token": "definitely-not-a-valid-token"}`
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", recorder.Code)
	}
}
