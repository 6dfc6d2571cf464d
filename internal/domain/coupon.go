package domain

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodeLength is the exact length a coupon code must have after sanitization.
const CodeLength = 6

// MinDiscountValue is the lowest discount a coupon may carry.
var MinDiscountValue = decimal.NewFromFloat(0.5)

type Coupon struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Description    string          `json:"description"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	ExpirationDate Date            `json:"expirationDate"`
	Deleted        bool            `json:"-"`
	CreatedAt      time.Time       `json:"-"`
}

// MarshalJSON emits DiscountValue as a bare JSON number. decimal.Decimal
// quotes its value by default, which clients reading a numeric field
// would reject.
func (c Coupon) MarshalJSON() ([]byte, error) {
	type coupon Coupon
	return json.Marshal(struct {
		coupon
		DiscountValue json.RawMessage `json:"discountValue"`
	}{coupon(c), json.RawMessage(c.DiscountValue.String())})
}

// NewCoupon builds a valid coupon from raw input or fails with one of the
// sentinel validation errors. The code is sanitized (non-alphanumerics
// stripped, uppercased) before the length check, so "PROMO@#$1" becomes
// "PROMO1". Checks run in a fixed order (code, description, discount,
// expiration) so the first violated rule is the one reported.
// No invalid instance is ever observable: fields are assigned only after
// every rule passes.
func NewCoupon(rawCode, description string, discountValue *decimal.Decimal, expirationDate *Date, today Date) (*Coupon, error) {
	code, err := sanitizeCode(rawCode)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	if discountValue == nil {
		return nil, ErrMissingDiscount
	}
	if discountValue.LessThan(MinDiscountValue) {
		return nil, ErrDiscountBelowMinimum
	}

	if expirationDate == nil {
		return nil, ErrMissingExpirationDate
	}
	// Expiring today is still valid; only dates strictly in the past fail.
	if expirationDate.Before(today) {
		return nil, ErrExpirationInPast
	}

	return &Coupon{
		Code:           code,
		Description:    description,
		DiscountValue:  *discountValue,
		ExpirationDate: *expirationDate,
	}, nil
}

func sanitizeCode(rawCode string) (string, error) {
	if strings.TrimSpace(rawCode) == "" {
		return "", ErrEmptyCode
	}

	var b strings.Builder
	for _, r := range rawCode {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}

	code := b.String()
	if len(code) != CodeLength {
		return "", ErrInvalidCodeLength
	}
	return code, nil
}

// SortField names a coupon column the listing can be ordered by.
type SortField string

const (
	SortByCode           SortField = "code"
	SortByDescription    SortField = "description"
	SortByDiscountValue  SortField = "discountValue"
	SortByExpirationDate SortField = "expirationDate"
	SortByCreatedAt      SortField = "createdAt"
)

// ListQuery describes one paginated listing request. Search is a trimmed
// substring term; empty means "all active coupons".
type ListQuery struct {
	Search     string
	Page       int
	Size       int
	SortBy     SortField
	Descending bool
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() int {
	return q.Page * q.Size
}

type CouponRepository interface {
	// Create persists a new coupon and fills in ID and CreatedAt.
	// Returns ErrDuplicateCode if the unique index on code is violated.
	Create(ctx context.Context, coupon *Coupon) error

	// List returns the active (deleted = false) coupons matching the query.
	List(ctx context.Context, query ListQuery) ([]Coupon, error)

	// Count returns how many active coupons match the query's search term.
	Count(ctx context.Context, search string) (int64, error)

	// SoftDelete marks an active coupon as deleted. Returns false without
	// error when no active row with this id exists.
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)

	// IsAlreadyDeleted reports whether a row with this id exists with
	// deleted = true. It bypasses the active-only visibility filter; this
	// is what lets the delete flow tell "already deleted" apart from
	// "never existed".
	IsAlreadyDeleted(ctx context.Context, id uuid.UUID) (bool, error)
}
