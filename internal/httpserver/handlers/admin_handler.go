package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pizzafactory/internal/store"
)

// ListVendors returns every vendor record. Admin only.
func ListVendors(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendors, err := s.ListVendors(r.Context())
		if err != nil {
			lg.Errorw("vendor list failed", "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to list vendors"))
			return
		}
		views := make([]vendorView, 0, len(vendors))
		for i := range vendors {
			vv, err := buildView(r.Context(), s, &vendors[i])
			if err != nil {
				respondStatus(w, http.StatusInternalServerError, message("unable to list vendors"))
				return
			}
			views = append(views, vv)
		}
		respondJSON(w, views)
	}
}

// UpdateVendorRoles grants or revokes the admin role. Admin only.
func UpdateVendorRoles(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID    string   `json:"id"`
			Roles []string `json:"roles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
			respondStatus(w, http.StatusBadRequest, message("Missing required parameter"))
			return
		}
		if req.Roles != nil {
			admin := false
			for _, role := range req.Roles {
				if role == "admin" {
					admin = true
				}
			}
			if err := s.AssignRole(r.Context(), req.ID, "admin", admin); err != nil {
				if err == store.ErrNotFound {
					respondStatus(w, http.StatusNotFound, message("Vendor not found"))
					return
				}
				lg.Errorw("role assignment failed", "vendor", req.ID, "error", err)
				respondStatus(w, http.StatusInternalServerError, message("unable to update vendor"))
				return
			}
		}
		v, err := s.VendorByID(r.Context(), req.ID)
		if err == store.ErrNotFound {
			respondStatus(w, http.StatusNotFound, message("Vendor not found"))
			return
		}
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, message("unable to load vendor"))
			return
		}
		vv, err := buildView(r.Context(), s, v)
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, message("unable to load vendor"))
			return
		}
		respondJSON(w, vv)
	}
}

// DeleteVendor removes a vendor and cascades to auth codes, chaos, roles
// and connections in both directions. Admin only.
func DeleteVendor(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		switch err := s.DeleteVendor(r.Context(), id); err {
		case nil:
			respondJSON(w, message("vendor deleted"))
		case store.ErrNotFound:
			respondStatus(w, http.StatusNotFound, message("Vendor not found"))
		default:
			lg.Errorw("vendor delete failed", "vendor", id, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to delete vendor"))
		}
	}
}
