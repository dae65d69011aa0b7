package handlers

import (
	"errors"
	"time"

	"folio-tracker-service/middleware"
	"folio-tracker-service/services"
	"folio-tracker-service/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ImportOrderRequest struct {
	AccountID  string          `json:"account_id"`
	Currency   string          `json:"currency" binding:"required"`
	DataSource string          `json:"data_source" binding:"required"`
	Date       time.Time       `json:"date" binding:"required"`
	Fee        decimal.Decimal `json:"fee"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	Symbol     string          `json:"symbol" binding:"required"`
	Type       string          `json:"type" binding:"required"`
	UnitPrice  decimal.Decimal `json:"unit_price" binding:"required"`
}

type ImportRequest struct {
	Orders []ImportOrderRequest `json:"orders" binding:"required,dive"`
}

// ImportOrders validates and imports a batch of orders for the current user
func ImportOrders(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	orders := make([]services.ImportOrder, 0, len(req.Orders))
	for _, order := range req.Orders {
		orders = append(orders, services.ImportOrder{
			AccountID:  order.AccountID,
			Currency:   order.Currency,
			DataSource: order.DataSource,
			Date:       order.Date,
			Fee:        order.Fee,
			Quantity:   order.Quantity,
			Symbol:     order.Symbol,
			Type:       order.Type,
			UnitPrice:  order.UnitPrice,
		})
	}

	if err := services.GetGlobalImportService().Import(c.Request.Context(), userID, orders); err != nil {
		var batchErr *services.BatchTooLargeError
		var duplicateErr *services.DuplicateOrderError
		var symbolErr *services.InvalidSymbolError
		if errors.As(err, &batchErr) || errors.As(err, &duplicateErr) || errors.As(err, &symbolErr) {
			utils.BadRequestResponse(c, err.Error())
			return
		}
		utils.InternalErrorResponse(c, "Failed to import orders")
		return
	}

	utils.SuccessMessageResponse(c, "Orders imported successfully", nil)
}
