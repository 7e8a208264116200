package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// schoolID returns the authenticated school. Only valid behind authenticate.
func schoolID(r *http.Request) string {
	c, _ := auth.FromContext(r.Context())
	if c == nil {
		return ""
	}
	return c.Subject
}

func schoolName(r *http.Request) string {
	c, _ := auth.FromContext(r.Context())
	if c == nil {
		return ""
	}
	return c.SchoolName
}

func internalError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error("api: "+msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
