package postgres

import (
	"testing"

	"coupon-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name string
		term string
		want string
	}{
		{"plain term is untouched", "NATAL", "NATAL"},
		{"empty term stays empty", "", ""},
		{"percent is literal", "50%", `50\%`},
		{"underscore is literal", "BLACK_FRIDAY", `BLACK\_FRIDAY`},
		{"backslash is literal", `a\b`, `a\\b`},
		{"mixed metacharacters", `100%_off\`, `100\%\_off\\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.term))
		})
	}
}

func TestSortColumn(t *testing.T) {
	assert.Equal(t, "code", sortColumn(domain.SortByCode))
	assert.Equal(t, "description", sortColumn(domain.SortByDescription))
	assert.Equal(t, "discount_value", sortColumn(domain.SortByDiscountValue))
	assert.Equal(t, "expiration_date", sortColumn(domain.SortByExpirationDate))
	assert.Equal(t, "created_at", sortColumn(domain.SortByCreatedAt))

	// Anything outside the whitelist falls back to the listing default
	assert.Equal(t, "expiration_date", sortColumn(domain.SortField("id; DROP TABLE coupons")))

	assert.Equal(t, "DESC", sortDirection(true))
	assert.Equal(t, "ASC", sortDirection(false))
}
