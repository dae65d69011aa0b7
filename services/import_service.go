package services

import (
	"context"
	"fmt"
	"time"

	"folio-tracker-service/dataprovider"
	"folio-tracker-service/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxImportOrders bounds the size of a single import batch
const MaxImportOrders = 20

var globalImportService *ImportService

// SetGlobalImportService sets the global import service instance
func SetGlobalImportService(service *ImportService) {
	globalImportService = service
}

// GetGlobalImportService returns the global import service instance
func GetGlobalImportService() *ImportService {
	return globalImportService
}

// BatchTooLargeError is returned when an import batch exceeds MaxImportOrders
type BatchTooLargeError struct {
	Limit int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch exceeds the maximum of %d orders", e.Limit)
}

// DuplicateOrderError is returned when a candidate matches an already
// persisted order of the same user
type DuplicateOrderError struct {
	Index int
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("orders.%d is a duplicate order", e.Index)
}

// InvalidSymbolError is returned when the data provider has no record of a
// candidate's symbol
type InvalidSymbolError struct {
	Index      int
	Symbol     string
	DataSource string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("orders.%d.symbol (%q) is not valid for data source %q", e.Index, e.Symbol, e.DataSource)
}

// ImportOrder is a candidate order submitted for import
type ImportOrder struct {
	AccountID  string
	Currency   string
	DataSource string
	Date       time.Time
	Fee        decimal.Decimal
	Quantity   decimal.Decimal
	Symbol     string
	Type       string
	UnitPrice  decimal.Decimal
}

type ImportService struct {
	db       *gorm.DB
	provider dataprovider.Service
}

func NewImportService(db *gorm.DB, provider dataprovider.Service) *ImportService {
	return &ImportService{
		db:       db,
		provider: provider,
	}
}

// Import validates a batch of candidate orders for a user and persists them.
// Validation is all-or-nothing: nothing is written unless every candidate
// passes the duplicate and symbol checks.
func (s *ImportService) Import(ctx context.Context, userID string, orders []ImportOrder) error {
	if len(orders) > MaxImportOrders {
		return &BatchTooLargeError{Limit: MaxImportOrders}
	}

	var existing []models.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load existing orders: %w", err)
	}

	for index, order := range orders {
		if isDuplicate(order, existing) {
			return &DuplicateOrderError{Index: index}
		}

		profiles, err := s.provider.Lookup(ctx, []dataprovider.Item{
			{DataSource: order.DataSource, Symbol: order.Symbol},
		})
		if err != nil {
			return fmt.Errorf("failed to look up symbol %s: %w", order.Symbol, err)
		}

		if _, ok := profiles[order.Symbol]; !ok {
			return &InvalidSymbolError{
				Index:      index,
				Symbol:     order.Symbol,
				DataSource: order.DataSource,
			}
		}
	}

	for _, order := range orders {
		record := models.Order{
			AccountID:  order.AccountID,
			UserID:     userID,
			Currency:   order.Currency,
			DataSource: order.DataSource,
			Date:       order.Date,
			Fee:        order.Fee,
			Quantity:   order.Quantity,
			Symbol:     order.Symbol,
			Type:       order.Type,
			UnitPrice:  order.UnitPrice,
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
	}

	return nil
}

// isDuplicate reports whether a candidate matches an existing order on
// currency, data source, day, fee, quantity, symbol, type and unit price.
// Date equality is day-level, not exact timestamp.
func isDuplicate(candidate ImportOrder, existing []models.Order) bool {
	for _, order := range existing {
		if candidate.Currency == order.Currency &&
			candidate.DataSource == order.DataSource &&
			sameDay(candidate.Date, order.Date) &&
			candidate.Fee.Equal(order.Fee) &&
			candidate.Quantity.Equal(order.Quantity) &&
			candidate.Symbol == order.Symbol &&
			candidate.Type == order.Type &&
			candidate.UnitPrice.Equal(order.UnitPrice) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
