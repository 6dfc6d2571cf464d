package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coupon-service/internal/domain"
	"coupon-service/pkg/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponUsecase handles coupon management operations: create, paginated
// list/search, and soft delete.
type CouponUsecase struct {
	couponRepo   domain.CouponRepository
	cache        cache.CacheService
	cacheListTTL time.Duration
	defaultSize  int
	maxSize      int
}

func NewCouponUsecase(couponRepo domain.CouponRepository, cache cache.CacheService, listTTL time.Duration, defaultPageSize, maxPageSize int) *CouponUsecase {
	return &CouponUsecase{
		couponRepo:   couponRepo,
		cache:        cache,
		cacheListTTL: listTTL,
		defaultSize:  defaultPageSize,
		maxSize:      maxPageSize,
	}
}

// CreateCouponRequest represents the input for creating a coupon.
// Pointer fields keep "absent" distinguishable from zero values.
type CreateCouponRequest struct {
	Code           string           `json:"code"`
	Description    string           `json:"description"`
	DiscountValue  *decimal.Decimal `json:"discountValue"`
	ExpirationDate *domain.Date     `json:"expirationDate"`
}

// CreateCoupon builds the coupon through the domain constructor, which
// enforces every business rule, and persists it. Duplicate codes surface as
// domain.ErrDuplicateCode from the repository's unique index.
func (uc *CouponUsecase) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*domain.Coupon, error) {
	coupon, err := domain.NewCoupon(req.Code, req.Description, req.DiscountValue, req.ExpirationDate, domain.Today())
	if err != nil {
		return nil, err
	}

	if err := uc.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	// Cached listing pages are stale now
	uc.cache.Flush()

	return coupon, nil
}

// ListCoupons returns one page of active coupons. A blank search term (after
// trimming) lists everything; otherwise code and description are matched
// case-insensitively as substrings.
func (uc *CouponUsecase) ListCoupons(ctx context.Context, search string, page, size int, sort string) (*domain.CouponPage, error) {
	query := uc.buildQuery(search, page, size, sort)

	cacheKey := fmt.Sprintf("coupons:list:%s:%d:%d:%s:%v",
		query.Search, query.Page, query.Size, query.SortBy, query.Descending)
	if val, found := uc.cache.Get(cacheKey); found {
		return val.(*domain.CouponPage), nil
	}

	coupons, err := uc.couponRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	total, err := uc.couponRepo.Count(ctx, query.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to count coupons: %w", err)
	}

	result := domain.NewCouponPage(coupons, query, total)
	uc.cache.Set(cacheKey, result, uc.cacheListTTL)
	return result, nil
}

// DeleteCoupon soft-deletes a coupon, telling three outcomes apart:
// an active coupon is marked deleted (nil), a coupon deleted before reports
// domain.ErrCouponAlreadyDeleted, and an id that never existed reports
// domain.ErrCouponNotFound. The update itself is the only write; deciding
// between the two failure cases takes one extra unscoped lookup.
func (uc *CouponUsecase) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	deleted, err := uc.couponRepo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	if deleted {
		uc.cache.Flush()
		return nil
	}

	alreadyDeleted, err := uc.couponRepo.IsAlreadyDeleted(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check coupon state: %w", err)
	}
	if alreadyDeleted {
		return domain.ErrCouponAlreadyDeleted
	}
	return domain.ErrCouponNotFound
}

func (uc *CouponUsecase) buildQuery(search string, page, size int, sort string) domain.ListQuery {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = uc.defaultSize
	}
	if size > uc.maxSize {
		size = uc.maxSize
	}

	sortBy, descending := parseSort(sort)

	return domain.ListQuery{
		Search:     strings.TrimSpace(search),
		Page:       page,
		Size:       size,
		SortBy:     sortBy,
		Descending: descending,
	}
}

// parseSort reads a "field" or "field,direction" sort parameter. Unknown
// fields and directions fall back to the default ascending expiration sort.
func parseSort(sort string) (domain.SortField, bool) {
	field, direction, _ := strings.Cut(sort, ",")

	sortBy := domain.SortByExpirationDate
	switch domain.SortField(strings.TrimSpace(field)) {
	case domain.SortByCode:
		sortBy = domain.SortByCode
	case domain.SortByDescription:
		sortBy = domain.SortByDescription
	case domain.SortByDiscountValue:
		sortBy = domain.SortByDiscountValue
	case domain.SortByCreatedAt:
		sortBy = domain.SortByCreatedAt
	}

	descending := strings.EqualFold(strings.TrimSpace(direction), "desc")
	return sortBy, descending
}
