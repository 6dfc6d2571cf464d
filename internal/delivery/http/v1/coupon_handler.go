package v1

import (
	"errors"
	"net/http"
	"strconv"

	"coupon-service/internal/domain"
	"coupon-service/internal/usecase"
	"coupon-service/pkg/logger"
	"coupon-service/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// CouponHandler handles the coupon management endpoints.
// Thin handler layer - delegates all logic to usecase.
type CouponHandler struct {
	couponUC *usecase.CouponUsecase
}

func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{couponUC: uc}
}

// CreateCoupon creates a new coupon.
// POST /coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, utils.TypeInvalidRequest,
			"Invalid Request", "Invalid request payload.")
		return
	}

	coupon, err := h.couponUC.CreateCoupon(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, coupon)
}

// ListCoupons returns a paginated page of active coupons, optionally
// filtered by a case-insensitive search over code and description.
// GET /coupons?search=&page=&size=&sort=
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	result, err := h.couponUC.ListCoupons(r.Context(), q.Get("search"), page, size, q.Get("sort"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, result)
}

// DeleteCoupon soft-deletes a coupon.
// DELETE /coupons/{id}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteProblem(w, http.StatusBadRequest, utils.TypeInvalidRequest,
			"Invalid Request", "Invalid coupon id.")
		return
	}

	if err := h.couponUC.DeleteCoupon(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validationDetails are the human-readable problem details for each
// business-rule violation raised at coupon construction.
var validationDetails = map[error]string{
	domain.ErrEmptyCode:             "The coupon code must not be empty.",
	domain.ErrInvalidCodeLength:     "The code must have exactly 6 alphanumeric characters after sanitization.",
	domain.ErrEmptyDescription:      "The coupon description must not be empty.",
	domain.ErrMissingDiscount:       "The discount value is required.",
	domain.ErrDiscountBelowMinimum:  "The minimum discount value is 0.5",
	domain.ErrMissingExpirationDate: "The expiration date is required.",
	domain.ErrExpirationInPast:      "The expiration date must not be in the past.",
}

// writeDomainError translates domain errors into problem-detail responses.
// Nothing domain-raised escapes as an opaque failure; unknown errors are
// logged and reported as 500.
func (h *CouponHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		utils.WriteProblem(w, http.StatusNotFound, utils.TypeNotFound,
			"Not Found", "Coupon not found.")

	case errors.Is(err, domain.ErrCouponAlreadyDeleted):
		utils.WriteProblem(w, http.StatusBadRequest, utils.TypeBusinessRule,
			"Business Rule Violated", "Coupon is already deleted.")

	case errors.Is(err, domain.ErrDuplicateCode):
		utils.WriteProblem(w, http.StatusConflict, utils.TypeDataConflict,
			"Data Conflict", "A coupon with this code already exists.")

	case domain.IsValidationError(err):
		utils.WriteProblem(w, http.StatusBadRequest, utils.TypeBusinessRule,
			"Business Rule Violated", validationDetail(err))

	default:
		logger.WithContext(r.Context()).Error().Err(err).Msg("Unhandled coupon error")
		utils.WriteProblem(w, http.StatusInternalServerError, utils.TypeInternal,
			"Internal Server Error", "An unexpected error occurred.")
	}
}

func validationDetail(err error) string {
	for target, detail := range validationDetails {
		if errors.Is(err, target) {
			return detail
		}
	}
	return err.Error()
}
