package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pizzafactory/internal/auth"
	"pizzafactory/internal/chaos"
	"pizzafactory/internal/email"
	"pizzafactory/internal/models"
	"pizzafactory/internal/store"
)

const emailDomain = "byu.edu"

// vendorView is the externally visible vendor record: roles flattened to
// names, chaos fix code redacted, connections keyed by purpose.
type vendorView struct {
	models.Vendor
	Roles       []string                        `json:"roles"`
	Connections map[string]store.ConnectionView `json:"connections,omitempty"`
}

func buildView(ctx context.Context, s store.Store, v *models.Vendor) (vendorView, error) {
	vv := vendorView{Vendor: *v, Roles: v.RoleNames()}
	if vv.Vendor.Chaos != nil {
		redacted := *vv.Vendor.Chaos
		redacted.FixCode = nil
		vv.Vendor.Chaos = &redacted
	}
	conns, err := s.Connections(ctx, v.ID)
	if err != nil {
		return vv, err
	}
	if len(conns) > 0 {
		vv.Connections = conns
	}
	return vv, nil
}

// GetVendor returns the calling vendor's record.
func GetVendor(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		vv, err := buildView(r.Context(), s, p.Vendor)
		if err != nil {
			lg.Errorw("vendor view failed", "vendor", p.Vendor.ID, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to load vendor"))
			return
		}
		respondJSON(w, vv)
	}
}

// UpdateVendor applies a sparse profile update. A null value removes the
// field; only supplied fields change.
func UpdateVendor(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatus(w, http.StatusBadRequest, message(err.Error()))
			return
		}
		v := p.Vendor
		for key, val := range req {
			field, ok := profileField(v, key)
			if !ok {
				continue
			}
			if val == nil {
				*field = ""
			} else if str, ok := val.(string); ok {
				*field = str
			}
		}
		if err := s.UpdateVendor(r.Context(), v); err != nil {
			lg.Errorw("vendor update failed", "vendor", v.ID, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to update vendor"))
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

func profileField(v *models.Vendor, key string) (*string, bool) {
	switch key {
	case "name":
		return &v.Name, true
	case "email":
		return &v.Email, true
	case "phone":
		return &v.Phone, true
	case "website":
		return &v.Website, true
	case "gitHubUrl":
		return &v.GitHubURL, true
	}
	return nil, false
}

// VendorCode generates a login code, stores its hash and emails it.
func VendorCode(s store.Store, mail email.Sender, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
			respondStatus(w, http.StatusBadRequest, message("Missing required parameters"))
			return
		}
		id := strings.TrimSpace(req.ID)
		code := auth.NewLoginCode()
		hash, err := auth.HashCode(code)
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, message("unable to create code"))
			return
		}
		if err := s.PutAuthCode(r.Context(), id, hash); err != nil {
			lg.Errorw("auth code store failed", "vendor", id, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to create code"))
			return
		}
		addr := fmt.Sprintf("%s@%s", id, emailDomain)
		if err := mail.Send(r.Context(), loginCodeMessage(id, addr, code)); err != nil {
			lg.Errorw("code email failed", "vendor", id, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to send code"))
			return
		}
		respondJSON(w, message(fmt.Sprintf("Code sent to %s", addr)))
	}
}

func loginCodeMessage(id, addr, code string) email.Message {
	text := fmt.Sprintf("Hello %s,\n\nYour verification code for the JWT Pizza Factory is: %s\n\nDo not share this code with others.\n", id, code)
	html := fmt.Sprintf("<p>Hello %s,</p><p>Your verification code for the JWT Pizza Factory is:</p><p><strong>%s</strong></p><p>Do not share this code with others.</p>", id, code)
	return email.Message{
		To:      addr,
		Subject: "JWT Pizza Factory verification code",
		Text:    text,
		HTML:    html,
	}
}

// VendorAuthorize exchanges id+code for the vendor record, creating the
// vendor with a fresh api key on first use. The code is single-use.
func VendorAuthorize(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatus(w, http.StatusUnauthorized, message("Invalid code"))
			return
		}
		hash, err := s.AuthCodeHash(r.Context(), req.ID)
		if err != nil || auth.CheckCode(hash, req.Code) != nil {
			respondStatus(w, http.StatusUnauthorized, message("Invalid code"))
			return
		}
		_ = s.DeleteAuthCode(r.Context(), req.ID)

		v, err := s.VendorByID(r.Context(), req.ID)
		if err == store.ErrNotFound {
			v = &models.Vendor{ID: req.ID, APIKey: newAPIKey()}
			if err := s.CreateVendor(r.Context(), v); err != nil {
				lg.Errorw("vendor create failed", "vendor", req.ID, "error", err)
				respondStatus(w, http.StatusInternalServerError, message("unable to create vendor"))
				return
			}
			v, err = s.VendorByID(r.Context(), req.ID)
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

// ConnectVendor requests a pairing for a purpose and returns the caller's
// record including the resulting connection view.
func ConnectVendor(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		var req struct {
			Purpose string `json:"purpose"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Purpose) == "" {
			respondStatus(w, http.StatusBadRequest, message("Invalid purpose"))
			return
		}
		if _, err := s.RequestConnection(r.Context(), p.Vendor.ID, strings.TrimSpace(req.Purpose)); err != nil {
			lg.Errorw("connection request failed", "vendor", p.Vendor.ID, "purpose", req.Purpose, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to connect"))
			return
		}
		vv, err := buildView(r.Context(), s, p.Vendor)
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, message("unable to load vendor"))
			return
		}
		respondJSON(w, vv)
	}
}

// RateConnection attaches a 1-5 rating to the caller's fulfilled pairing.
func RateConnection(s store.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		var req struct {
			ID      string `json:"id"`
			Purpose string `json:"purpose"`
			Rating  int    `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Purpose) == "" {
			respondStatus(w, http.StatusBadRequest, message("Invalid purpose"))
			return
		}
		if req.Rating < 1 || req.Rating > 5 {
			respondStatus(w, http.StatusBadRequest, message("Invalid rating"))
			return
		}
		purpose := strings.TrimSpace(req.Purpose)
		switch err := s.RateConnection(r.Context(), p.Vendor.ID, purpose, req.Rating); err {
		case nil:
		case store.ErrNotPaired:
			respondStatus(w, http.StatusBadRequest, message("Connection not fulfilled"))
			return
		default:
			lg.Errorw("rating failed", "vendor", p.Vendor.ID, "purpose", purpose, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to rate connection"))
			return
		}
		cv, err := s.ConnectionFor(r.Context(), p.Vendor.ID, purpose)
		if err != nil {
			respondStatus(w, http.StatusInternalServerError, message("unable to load connection"))
			return
		}
		respondJSON(w, cv)
	}
}

// InitiateChaos arms one of the three injectable faults for the caller.
func InitiateChaos(eng *chaos.Engine, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		typ := chi.URLParam(r, "type")
		if !chaos.ValidType(typ) {
			respondStatus(w, http.StatusBadRequest, message("Invalid chaos type"))
			return
		}
		if err := eng.Initiate(r.Context(), p.Vendor.ID, typ); err != nil {
			lg.Errorw("chaos initiate failed", "vendor", p.Vendor.ID, "type", typ, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to initiate chaos"))
			return
		}
		respondJSON(w, message("Chaos initiated"))
	}
}

func newAPIKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
