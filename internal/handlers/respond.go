package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pocketpet/api/internal/middleware"
	"github.com/pocketpet/api/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the body. An empty body is
// reported as invalid.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// statusOverrides lets an endpoint remap a kind, e.g. login reports an
// unknown user as 400.
type statusOverrides map[service.Kind]int

func statusFor(kind service.Kind, overrides statusOverrides) int {
	if code, ok := overrides[kind]; ok {
		return code
	}
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error, overrides statusOverrides) {
	middleware.WriteError(w, statusFor(service.KindOf(err), overrides), service.MessageOf(err))
}

func claimsOrUnauthorized(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	claims, ok := middleware.GetUserClaims(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return 0, "", false
	}
	return claims.UserID, claims.SessionID(), true
}
