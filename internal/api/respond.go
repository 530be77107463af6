package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/pricebook/internal/db"
	"github.com/sells-group/pricebook/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter) {
	writeErrorMsg(w, http.StatusNotFound, "not found")
}

// writeError maps the closed error kinds onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged; client-caused errors are not.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalid):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrForeignKey):
		writeErrorMsg(w, http.StatusNotFound, "referenced item not found")
	case errors.Is(err, db.ErrConflict):
		writeErrorMsg(w, http.StatusConflict, "conflicting concurrent write")
	case errors.Is(err, db.ErrTransient):
		h.log.Warn("transient store failure", zap.Error(err))
		writeErrorMsg(w, http.StatusServiceUnavailable, "temporary failure, retry")
	default:
		h.log.Error("internal error", zap.Error(err))
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
