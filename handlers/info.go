package handlers

import (
	"folio-tracker-service/services"
	"folio-tracker-service/utils"

	"github.com/gin-gonic/gin"
)

// GetInfo serves the composite platform info payload (public API)
func GetInfo(c *gin.Context) {
	info, err := services.GetGlobalInfoService().GetInfo(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to assemble info")
		return
	}

	utils.SuccessResponse(c, info)
}
