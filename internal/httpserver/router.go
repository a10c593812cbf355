package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pizzafactory/internal/auth"
	"pizzafactory/internal/chaos"
	"pizzafactory/internal/email"
	"pizzafactory/internal/httpserver/handlers"
	"pizzafactory/internal/keys"
	"pizzafactory/internal/store"
)

const version = "1.0.0"

func NewRouter(s store.Store, ks *keys.Keys, eng *chaos.Engine, mail email.Sender, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Get("/.well-known/jwks.json", handlers.JWKS(ks))

	r.Route("/api", func(api chi.Router) {
		api.Post("/order/verify", handlers.VerifyOrder(ks, lg))
		api.Get("/support/{vendorToken}/report/{fixCode}", handlers.ReportProblem(eng, lg))
		api.Post("/vendor/code", handlers.VendorCode(s, mail, lg))
		api.Post("/vendor/auth", handlers.VendorAuthorize(s, lg))
		api.Get("/docs", handlers.Docs(version))

		api.Group(func(protected chi.Router) {
			protected.Use(auth.VendorAuth(s))
			protected.Post("/order", handlers.CreateOrder(eng, ks, lg))
			protected.Get("/vendor", handlers.GetVendor(s, lg))
			protected.Put("/vendor", handlers.UpdateVendor(s, lg))
			protected.Post("/vendor/connect", handlers.ConnectVendor(s, lg))
			protected.Put("/vendor/connect", handlers.RateConnection(s, lg))
			protected.Put("/vendor/chaos/{type}", handlers.InitiateChaos(eng, lg))

			protected.Group(func(admin chi.Router) {
				admin.Use(auth.RequireRole("admin"))
				admin.Get("/admin/vendors", handlers.ListVendors(s, lg))
				admin.Put("/admin/vendor", handlers.UpdateVendorRoles(s, lg))
				admin.Delete("/admin/vendor/{id}", handlers.DeleteVendor(s, lg))
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"unknown endpoint"}`))
	})
	return r
}
