package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Problem is an RFC 9457 problem-detail body. Every error the API returns
// uses this shape.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// Problem type URIs, one per error family.
const (
	TypeBusinessRule   = "https://coupon-service.dev/errors/business-rule"
	TypeDataConflict   = "https://coupon-service.dev/errors/data-conflict"
	TypeNotFound       = "https://coupon-service.dev/errors/not-found"
	TypeInvalidRequest = "https://coupon-service.dev/errors/invalid-request"
	TypeInternal       = "https://coupon-service.dev/errors/internal"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// WriteProblem writes a problem-detail error response.
func WriteProblem(w http.ResponseWriter, status int, problemType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
