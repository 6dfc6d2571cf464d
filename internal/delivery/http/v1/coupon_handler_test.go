package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"coupon-service/internal/domain"
	"coupon-service/internal/infrastructure/cache"
	"coupon-service/internal/usecase"
	"coupon-service/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCouponRepo struct {
	coupons map[uuid.UUID]*domain.Coupon
	failAll bool
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{coupons: make(map[uuid.UUID]*domain.Coupon)}
}

var errRepoDown = assert.AnError

func (r *stubCouponRepo) Create(_ context.Context, c *domain.Coupon) error {
	if r.failAll {
		return errRepoDown
	}
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return domain.ErrDuplicateCode
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	stored := *c
	r.coupons[c.ID] = &stored
	return nil
}

func (r *stubCouponRepo) matches(c *domain.Coupon, search string) bool {
	if c.Deleted {
		return false
	}
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Code), needle) ||
		strings.Contains(strings.ToLower(c.Description), needle)
}

func (r *stubCouponRepo) List(_ context.Context, q domain.ListQuery) ([]domain.Coupon, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	var result []domain.Coupon
	for _, c := range r.coupons {
		if r.matches(c, q.Search) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if q.SortBy == domain.SortByCode {
			return result[i].Code < result[j].Code
		}
		return result[i].ExpirationDate.Before(result[j].ExpirationDate)
	})
	start := q.Offset()
	if start > len(result) {
		start = len(result)
	}
	end := start + q.Size
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (r *stubCouponRepo) Count(_ context.Context, search string) (int64, error) {
	if r.failAll {
		return 0, errRepoDown
	}
	var total int64
	for _, c := range r.coupons {
		if r.matches(c, search) {
			total++
		}
	}
	return total, nil
}

func (r *stubCouponRepo) SoftDelete(_ context.Context, id uuid.UUID) (bool, error) {
	c, ok := r.coupons[id]
	if !ok || c.Deleted {
		return false, nil
	}
	c.Deleted = true
	return true, nil
}

func (r *stubCouponRepo) IsAlreadyDeleted(_ context.Context, id uuid.UUID) (bool, error) {
	c, ok := r.coupons[id]
	return ok && c.Deleted, nil
}

func newTestServer(repo domain.CouponRepository) *httptest.Server {
	memCache := cache.NewMemoryCache(time.Minute, time.Minute)
	uc := usecase.NewCouponUsecase(repo, memCache, time.Minute, 10, 100)
	handler := NewCouponHandler(uc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /coupons", handler.CreateCoupon)
	mux.HandleFunc("GET /coupons", handler.ListCoupons)
	mux.HandleFunc("DELETE /coupons/{id}", handler.DeleteCoupon)
	return httptest.NewServer(mux)
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func futureDate() string {
	return domain.Today().AddDays(30).String()
}

func createPayload(code, description string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"code":           code,
		"description":    description,
		"discountValue":  10,
		"expirationDate": futureDate(),
	})
	return string(body)
}

func TestCreateCouponEndpoint(t *testing.T) {
	t.Run("creates a coupon and returns it", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload("PROMO@#$1", "Promo discount"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body map[string]interface{}
		decodeBody(t, resp, &body)
		assert.Equal(t, "PROMO1", body["code"])
		assert.Equal(t, "Promo discount", body["description"])
		assert.Equal(t, futureDate(), body["expirationDate"])
		assert.NotEmpty(t, body["id"])

		// Internal bookkeeping stays off the wire
		assert.NotContains(t, body, "deleted")
		assert.NotContains(t, body, "createdAt")
	})

	t.Run("emits discountValue as a JSON number", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		payload := `{"code":"PROMO1","description":"Promo","discountValue":10.5,"expirationDate":"` + futureDate() + `"}`
		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		defer resp.Body.Close()

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		assert.Equal(t, "10.5", string(raw["discountValue"]))
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", "{not json")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, utils.TypeInvalidRequest, problem.Type)
		assert.Equal(t, "Invalid request payload.", problem.Detail)
	})

	t.Run("maps validation failures to business-rule problems", func(t *testing.T) {
		tests := []struct {
			name       string
			payload    string
			wantDetail string
		}{
			{
				name:       "code too short after sanitization",
				payload:    createPayload("AB@#1", "Valid description"),
				wantDetail: "The code must have exactly 6 alphanumeric characters after sanitization.",
			},
			{
				name:       "blank description",
				payload:    createPayload("PROMO1", "   "),
				wantDetail: "The coupon description must not be empty.",
			},
			{
				name:       "discount below minimum",
				payload:    `{"code":"PROMO1","description":"Promo","discountValue":0.49,"expirationDate":"` + futureDate() + `"}`,
				wantDetail: "The minimum discount value is 0.5",
			},
			{
				name:       "missing discount",
				payload:    `{"code":"PROMO1","description":"Promo","expirationDate":"` + futureDate() + `"}`,
				wantDetail: "The discount value is required.",
			},
			{
				name:       "missing expiration date",
				payload:    `{"code":"PROMO1","description":"Promo","discountValue":10}`,
				wantDetail: "The expiration date is required.",
			},
			{
				name:       "expiration in the past",
				payload:    `{"code":"PROMO1","description":"Promo","discountValue":10,"expirationDate":"2020-01-01"}`,
				wantDetail: "The expiration date must not be in the past.",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := newTestServer(newStubCouponRepo())
				defer srv.Close()

				resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", tt.payload)
				require.Equal(t, http.StatusBadRequest, resp.StatusCode)

				var problem utils.Problem
				decodeBody(t, resp, &problem)
				assert.Equal(t, utils.TypeBusinessRule, problem.Type)
				assert.Equal(t, "Business Rule Violated", problem.Title)
				assert.Equal(t, http.StatusBadRequest, problem.Status)
				assert.Equal(t, tt.wantDetail, problem.Detail)
			})
		}
	})

	t.Run("returns 409 for a duplicate code", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload("DUPL01", "First"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload("DUPL01", "Second"))
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, utils.TypeDataConflict, problem.Type)
		assert.Equal(t, "A coupon with this code already exists.", problem.Detail)
	})

	t.Run("returns 500 with an opaque detail when the repository fails", func(t *testing.T) {
		repo := newStubCouponRepo()
		repo.failAll = true
		srv := newTestServer(repo)
		defer srv.Close()

		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload("PROMO1", "Promo"))
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, "An unexpected error occurred.", problem.Detail)
	})
}

func TestListCouponsEndpoint(t *testing.T) {
	seed := func(t *testing.T, srv *httptest.Server, code, description string) {
		t.Helper()
		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload(code, description))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	type pageBody struct {
		Content       []map[string]interface{} `json:"content"`
		Page          int                      `json:"page"`
		Size          int                      `json:"size"`
		TotalElements int64                    `json:"totalElements"`
		TotalPages    int                      `json:"totalPages"`
	}

	t.Run("returns the page envelope with defaults", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()
		seed(t, srv, "CODE01", "Christmas discount")
		seed(t, srv, "CODE02", "Easter discount")

		resp := doJSON(t, http.MethodGet, srv.URL+"/coupons", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageBody
		decodeBody(t, resp, &page)
		assert.Equal(t, 0, page.Page)
		assert.Equal(t, 10, page.Size)
		assert.Equal(t, int64(2), page.TotalElements)
		assert.Equal(t, 1, page.TotalPages)
		assert.Len(t, page.Content, 2)
	})

	t.Run("empty store yields an empty content array, not null", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodGet, srv.URL+"/coupons", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		assert.Equal(t, "[]", string(raw["content"]))
	})

	t.Run("searches code and description case-insensitively", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()
		seed(t, srv, "NATAL1", "Christmas discount")
		seed(t, srv, "PASCO1", "Easter discount")

		resp := doJSON(t, http.MethodGet, srv.URL+"/coupons?search=nat", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageBody
		decodeBody(t, resp, &page)
		require.Len(t, page.Content, 1)
		assert.Equal(t, "NATAL1", page.Content[0]["code"])
		assert.Equal(t, int64(1), page.TotalElements)
	})

	t.Run("paginates and reports total pages", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()
		codes := []string{"CODE01", "CODE02", "CODE03"}
		for _, code := range codes {
			seed(t, srv, code, "Bulk discount")
		}

		resp := doJSON(t, http.MethodGet, srv.URL+"/coupons?page=1&size=2&sort=code", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page pageBody
		decodeBody(t, resp, &page)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.Size)
		assert.Equal(t, int64(3), page.TotalElements)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Content, 1)
		assert.Equal(t, "CODE03", page.Content[0]["code"])
	})
}

func TestDeleteCouponEndpoint(t *testing.T) {
	createCoupon := func(t *testing.T, srv *httptest.Server) string {
		t.Helper()
		resp := doJSON(t, http.MethodPost, srv.URL+"/coupons", createPayload("DEL001", "To delete"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var body map[string]interface{}
		decodeBody(t, resp, &body)
		return body["id"].(string)
	}

	t.Run("deletes once, then reports already deleted", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()
		id := createCoupon(t, srv)

		resp := doJSON(t, http.MethodDelete, srv.URL+"/coupons/"+id, "")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodDelete, srv.URL+"/coupons/"+id, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, utils.TypeBusinessRule, problem.Type)
		assert.Equal(t, "Coupon is already deleted.", problem.Detail)
	})

	t.Run("hides deleted coupons from listings", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()
		id := createCoupon(t, srv)

		resp := doJSON(t, http.MethodDelete, srv.URL+"/coupons/"+id, "")
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, http.MethodGet, srv.URL+"/coupons", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			TotalElements int64 `json:"totalElements"`
		}
		decodeBody(t, resp, &page)
		assert.Equal(t, int64(0), page.TotalElements)
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodDelete, srv.URL+"/coupons/"+uuid.NewString(), "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, utils.TypeNotFound, problem.Type)
		assert.Equal(t, "Coupon not found.", problem.Detail)
	})

	t.Run("returns 400 for a malformed id", func(t *testing.T) {
		srv := newTestServer(newStubCouponRepo())
		defer srv.Close()

		resp := doJSON(t, http.MethodDelete, srv.URL+"/coupons/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem utils.Problem
		decodeBody(t, resp, &problem)
		assert.Equal(t, utils.TypeInvalidRequest, problem.Type)
		assert.Equal(t, "Invalid coupon id.", problem.Detail)
	})
}
