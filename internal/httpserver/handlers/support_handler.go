package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pizzafactory/internal/chaos"
)

// ReportProblem is the chaos resolution endpoint. The URL already embeds
// the vendor credential; the fix code is the actual secret, so no further
// authentication is required.
func ReportProblem(eng *chaos.Engine, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorToken := chi.URLParam(r, "vendorToken")
		fixCode := chi.URLParam(r, "fixCode")

		result, err := eng.Resolve(r.Context(), vendorToken, fixCode)
		if err != nil {
			lg.Errorw("chaos resolve failed", "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to resolve"))
			return
		}
		switch result {
		case chaos.Resolved:
			respondJSON(w, message("Problem resolved. Pizza is back on the menu!"))
		case chaos.NoChaos:
			respondJSON(w, message("No chaos currently executing"))
		case chaos.NotResolved:
			respondStatus(w, http.StatusBadRequest, message("Problem not resolved"))
		case chaos.UnknownVendor:
			respondStatus(w, http.StatusBadRequest, message("Unknown vendor"))
		}
	}
}
