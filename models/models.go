package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a user account. Users authenticate with an opaque access
// token; only the peppered hash is stored.
type User struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	AccessTokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	Role            string    `gorm:"default:USER" json:"role"`
	Provider        string    `gorm:"default:ANONYMOUS" json:"provider"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Analytics tracks per-user activity. UpdatedAt drives the active-user counts
// in the statistics payload.
type Analytics struct {
	UserID        string    `gorm:"primaryKey" json:"user_id"`
	ActivityCount int       `gorm:"default:0" json:"activity_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Analytics
func (Analytics) TableName() string {
	return "analytics"
}

// Platform represents a brokerage or bank accounts can be linked to
type Platform struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	URL  string `gorm:"" json:"url"`
}

func (p *Platform) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Account represents a user's account on a platform
type Account struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index;not null" json:"user_id"`
	PlatformID string    `gorm:"index" json:"platform_id"`
	Name       string    `gorm:"not null" json:"name"`
	Currency   string    `gorm:"not null" json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Order represents a transaction order (buy, sell, dividend, ...). Orders are
// immutable once persisted. Two orders of a user sharing currency, data
// source, day, fee, quantity, symbol, type and unit price are duplicates.
type Order struct {
	ID         string          `gorm:"primaryKey" json:"id"`
	AccountID  string          `gorm:"index" json:"account_id"`
	UserID     string          `gorm:"index;not null" json:"user_id"`
	Currency   string          `gorm:"not null" json:"currency"`
	DataSource string          `gorm:"not null" json:"data_source"`
	Date       time.Time       `gorm:"not null" json:"date"`
	Fee        decimal.Decimal `gorm:"type:decimal(20,8)" json:"fee"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,8)" json:"quantity"`
	Symbol     string          `gorm:"not null" json:"symbol"`
	Type       string          `gorm:"not null" json:"type"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,8)" json:"unit_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Property is a key/value configuration record
type Property struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// Well-known property keys
const (
	PropertyLastDataGathering = "LAST_DATA_GATHERING"
	PropertySubscriptionOffer = "SUBSCRIPTION_OFFER"
)

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Analytics{},
		&Platform{},
		&Account{},
		&Order{},
		&Property{},
	)
}
