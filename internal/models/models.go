// Package models defines the domain entities shared with the tengecash web application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency amounts are recorded in.
const DefaultCurrency = "KZT"

// MaxCategoryNameLength is the maximum allowed length for category names.
const MaxCategoryNameLength = 100

// MaxDescriptionLength matches expenses_expense.description VARCHAR(255).
const MaxDescriptionLength = 255

// CurrencySymbols maps the supported currency codes to the symbol shown in chat.
var CurrencySymbols = map[string]string{
	"KZT": "₸",
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
	"KGS": "сом",
	"UZS": "сўм",
}

// Account is a web-site user that may be linked to a Telegram chat.
type Account struct {
	ID           int64
	Username     string
	FirstName    string
	PasswordHash string
	IsActive     bool
	TelegramID   *int64
}

// DisplayName returns the name used when greeting the account owner.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.Username
}

// IsLinked reports whether the account is bound to a chat.
func (a *Account) IsLinked() bool {
	return a.TelegramID != nil
}

// Section is a grouping above categories.
type Section struct {
	ID     int64
	UserID *int64
	Name   string
}

// Category is a user-defined expense grouping.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	SectionID *int64
}

// Expense is a single recorded spending.
type Expense struct {
	ID           int64
	UserID       int64
	Amount       decimal.Decimal
	Description  string
	CategoryID   int64
	CategoryName string
	SectionID    *int64
	Date         time.Time
}

// CurrencySymbol returns the chat symbol for a currency code, or the code itself.
func CurrencySymbol(code string) string {
	if s, ok := CurrencySymbols[code]; ok {
		return s
	}
	return code
}
