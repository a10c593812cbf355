package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"pizzafactory/internal/auth"
	"pizzafactory/internal/chaos"
	"pizzafactory/internal/keys"
	"pizzafactory/internal/models"
	"pizzafactory/internal/token"
)

const ovenFullMessage = "Unable to satisfy pizza order. The oven is full."

type orderReq struct {
	Diner json.RawMessage `json:"diner"`
	Order json.RawMessage `json:"order"`
}

type orderRes struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl,omitempty"`
}

// CreateOrder issues a signed order JWT for the calling vendor, routed
// through the vendor's chaos state first.
func CreateOrder(eng *chaos.Engine, ks *keys.Keys, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())

		var reportURL string
		if out := eng.Decide(p.Vendor, p.APIKey); out != nil {
			switch out.Type {
			case models.ChaosBadJWT:
				respondJSON(w, orderRes{JWT: chaos.BadJWT, ReportURL: out.ReportURL})
				return
			case models.ChaosFail:
				respondStatus(w, http.StatusInternalServerError, map[string]any{
					"message":   "chaos monkey",
					"reportUrl": out.ReportURL,
				})
				return
			case models.ChaosThrottle:
				if err := eng.Wait(r.Context()); err != nil {
					return // caller hung up mid-delay
				}
				reportURL = out.ReportURL
			}
		}

		var req orderReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatus(w, http.StatusBadRequest, message("Missing required parameters"))
			return
		}
		if emptyJSON(req.Diner) || emptyJSON(req.Order) {
			respondStatus(w, http.StatusBadRequest, message("Missing required parameters"))
			return
		}

		var order struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(req.Order, &order); err != nil {
			// A non-object order is malformed input, not a busy kitchen.
			respondStatus(w, http.StatusBadRequest, message("Missing required parameters"))
			return
		}
		if len(order.Items) == 0 || len(order.Items) > 20 {
			// The rejection itself is delayed so clients with tight
			// timeouts experience a busy kitchen, not a fast 503.
			if err := eng.Wait(r.Context()); err != nil {
				return
			}
			respondStatus(w, http.StatusServiceUnavailable, message(ovenFullMessage))
			return
		}

		claim := token.VendorClaim{ID: p.Vendor.ID, Name: p.Vendor.Name}
		jwtStr, err := token.Issue(ks, claim, req.Diner, req.Order)
		if err != nil {
			lg.Errorw("order signing failed", "vendor", p.Vendor.ID, "error", err)
			respondStatus(w, http.StatusInternalServerError, message("unable to process order"))
			return
		}
		respondJSON(w, orderRes{JWT: jwtStr, ReportURL: reportURL})
	}
}

// VerifyOrder validates a previously issued order JWT. Failures are
// uniform: 403 invalid, no detail on which check tripped.
func VerifyOrder(ks *keys.Keys, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JWT string `json:"jwt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatus(w, http.StatusForbidden, message("invalid"))
			return
		}
		payload, err := token.Verify(ks, req.JWT)
		if err != nil {
			respondStatus(w, http.StatusForbidden, message("invalid"))
			return
		}
		respondJSON(w, map[string]any{"message": "valid", "payload": payload})
	}
}

// JWKS serves the public key-set for third-party verification.
func JWKS(ks *keys.Keys) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, ks.JWKS())
	}
}

func emptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
