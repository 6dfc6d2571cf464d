package domain

// CouponPage is the paginated listing envelope returned by GET /coupons.
type CouponPage struct {
	Content       []Coupon `json:"content"`
	Page          int      `json:"page"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
}

func NewCouponPage(content []Coupon, query ListQuery, total int64) *CouponPage {
	if content == nil {
		content = []Coupon{}
	}

	totalPages := 0
	if query.Size > 0 {
		totalPages = int((total + int64(query.Size) - 1) / int64(query.Size))
	}

	return &CouponPage{
		Content:       content,
		Page:          query.Page,
		Size:          query.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
