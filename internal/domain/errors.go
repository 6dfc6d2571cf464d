package domain

import "errors"

// Validation errors raised by NewCoupon, in the order the rules are checked.
var (
	ErrEmptyCode             = errors.New("the coupon code must not be empty")
	ErrInvalidCodeLength     = errors.New("the code must have exactly 6 alphanumeric characters after sanitization")
	ErrEmptyDescription      = errors.New("the coupon description must not be empty")
	ErrMissingDiscount       = errors.New("the discount value is required")
	ErrDiscountBelowMinimum  = errors.New("the minimum discount value is 0.5")
	ErrMissingExpirationDate = errors.New("the expiration date is required")
	ErrExpirationInPast      = errors.New("the expiration date must not be in the past")
)

var (
	// ErrDuplicateCode is surfaced by the repository when the unique index
	// on code rejects an insert. The index spans soft-deleted rows too.
	ErrDuplicateCode = errors.New("a coupon with this code already exists")

	// ErrCouponAlreadyDeleted distinguishes a repeated delete from a delete
	// of an id that never existed.
	ErrCouponAlreadyDeleted = errors.New("coupon is already deleted")

	ErrCouponNotFound = errors.New("coupon not found")
)

// IsValidationError reports whether err is one of the business-rule
// violations raised at coupon construction.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyCode,
		ErrInvalidCodeLength,
		ErrEmptyDescription,
		ErrMissingDiscount,
		ErrDiscountBelowMinimum,
		ErrMissingExpirationDate,
		ErrExpirationInPast,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
