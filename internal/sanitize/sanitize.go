// Package sanitize cleans free-text fields arriving from the queue or the
// control surface before they reach storage or a display client.
package sanitize

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"kitchen-service/internal/domain"

	"github.com/microcosm-cc/bluemonday"
)

// Field length limits, matching what the upstream producers enforce.
const (
	MaxCustomerName = 100
	MaxTable        = 50
	MaxProductName  = 100
	MaxNote         = 500
)

// strict drops every tag and attribute; only text content survives.
var strict = bluemonday.StrictPolicy()

// Text strips markup from s and enforces max. The length check runs after
// stripping so an oversized script payload cannot sneak under the limit, and
// counts runes so multi-byte names are not penalised.
func Text(s string, max int) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if utf8.RuneCountInString(clean) > max {
		return "", fmt.Errorf("%w: text too long (max %d characters)", domain.ErrValidation, max)
	}
	return clean, nil
}

// Order sanitizes every free-text field of msg in place and validates the
// message invariants. It returns the first violation found.
func Order(msg *domain.OrderMessage) error {
	if strings.TrimSpace(msg.ID) == "" {
		return fmt.Errorf("%w: missing order id", domain.ErrValidation)
	}
	if len(msg.Items) == 0 {
		return fmt.Errorf("%w: items must not be empty", domain.ErrValidation)
	}

	var err error
	if msg.CustomerName, err = Text(msg.CustomerName, MaxCustomerName); err != nil {
		return fmt.Errorf("customerName: %w", err)
	}
	if msg.CustomerName == "" {
		return fmt.Errorf("%w: customerName must not be empty", domain.ErrValidation)
	}
	if msg.Table, err = Text(msg.Table, MaxTable); err != nil {
		return fmt.Errorf("table: %w", err)
	}

	for i := range msg.Items {
		item := &msg.Items[i]
		if item.ProductName, err = Text(item.ProductName, MaxProductName); err != nil {
			return fmt.Errorf("items[%d].productName: %w", i, err)
		}
		if item.ProductName == "" {
			return fmt.Errorf("%w: items[%d].productName must not be empty", domain.ErrValidation, i)
		}
		if item.Note != "" {
			if item.Note, err = Text(item.Note, MaxNote); err != nil {
				return fmt.Errorf("items[%d].note: %w", i, err)
			}
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be > 0", domain.ErrValidation, i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: items[%d].unitPrice must be >= 0", domain.ErrValidation, i)
		}
	}
	return nil
}
