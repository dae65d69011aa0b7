package handlers

import (
	"time"

	"folio-tracker-service/database"
	"folio-tracker-service/models"
	"folio-tracker-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AnonymousLoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// CreateAnonymousUser creates a new anonymous user and returns the opaque
// access token exactly once, together with a signed auth token.
func CreateAnonymousUser(c *gin.Context) {
	db := database.GetDB()

	accessToken := utils.GenerateAccessToken()

	user := models.User{
		AccessTokenHash: utils.HashAccessToken(accessToken),
		Role:            "USER",
		Provider:        "ANONYMOUS",
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		analytics := models.Analytics{
			UserID:        user.ID,
			ActivityCount: 1,
			UpdatedAt:     time.Now(),
		}
		return tx.Create(&analytics).Error
	})
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to create user")
		return
	}

	authToken, err := utils.GenerateAuthToken(user.ID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate auth token")
		return
	}

	utils.CreatedResponse(c, map[string]interface{}{
		"access_token": accessToken,
		"auth_token":   authToken,
		"role":         user.Role,
		"user_id":      user.ID,
	})
}

// AnonymousLogin exchanges an access token for a signed auth token
func AnonymousLogin(c *gin.Context) {
	var req AnonymousLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	db := database.GetDB()

	var user models.User
	if err := db.Where("access_token_hash = ?", utils.HashAccessToken(req.AccessToken)).
		First(&user).Error; err != nil {
		utils.UnauthorizedResponse(c, "Invalid access token")
		return
	}

	// Record the login as user activity; this feeds the active-user counts
	db.Model(&models.Analytics{}).
		Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{
			"activity_count": gorm.Expr("activity_count + 1"),
			"updated_at":     time.Now(),
		})

	authToken, err := utils.GenerateAuthToken(user.ID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate auth token")
		return
	}

	utils.SuccessResponse(c, map[string]interface{}{
		"auth_token": authToken,
		"role":       user.Role,
		"user_id":    user.ID,
	})
}
