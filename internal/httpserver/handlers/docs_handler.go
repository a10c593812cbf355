package handlers

import "net/http"

type endpointDoc struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth"`
	Description  string `json:"description"`
}

var endpoints = []endpointDoc{
	{"POST", "/api/order", true, "Create a JWT pizza"},
	{"POST", "/api/order/verify", false, "Verify a pizza order"},
	{"GET", "/.well-known/jwks.json", false, "Get the JSON Web Key Set for independent JWT verification"},
	{"GET", "/api/vendor", true, "Get vendor information"},
	{"PUT", "/api/vendor", true, "Update a vendor. Only supply the changed fields. Use null to remove a field"},
	{"POST", "/api/vendor/code", false, "Send an authorization code email"},
	{"POST", "/api/vendor/auth", false, "Authorize a vendor using the emailed code"},
	{"POST", "/api/vendor/connect", true, "Connect to another vendor for a specific purpose"},
	{"PUT", "/api/vendor/connect", true, "Rate a fulfilled vendor connection"},
	{"PUT", "/api/vendor/chaos/{type}", true, "Initiate chaos testing for a vendor"},
	{"GET", "/api/support/{vendorToken}/report/{fixCode}", false, "Report a problem and clear chaos"},
	{"GET", "/api/admin/vendors", true, "Get all vendors (admin)"},
	{"PUT", "/api/admin/vendor", true, "Update vendor roles (admin)"},
	{"DELETE", "/api/admin/vendor/{id}", true, "Delete a vendor (admin)"},
}

// Docs returns the endpoint catalog.
func Docs(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]any{
			"message":   "welcome to JWT Pizza Factory",
			"version":   version,
			"endpoints": endpoints,
		})
	}
}
