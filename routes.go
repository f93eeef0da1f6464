package main

import (
	"net/http"
	"time"

	"gala-ticketing/internal/attendees"
	attendees_api "gala-ticketing/internal/attendees/api"
	"gala-ticketing/internal/auth"
	auth_api "gala-ticketing/internal/auth/api"
	"gala-ticketing/internal/catalog"
	catalog_api "gala-ticketing/internal/catalog/api"
	"gala-ticketing/internal/config"
	"gala-ticketing/internal/fulfillment"
	"gala-ticketing/internal/logger"
	notification_api "gala-ticketing/internal/notification/api"
	"gala-ticketing/internal/order"
	"gala-ticketing/internal/order/order_api"
	"gala-ticketing/internal/payment/handler"
	"gala-ticketing/internal/reports"
	reports_api "gala-ticketing/internal/reports/api"
	"gala-ticketing/internal/seating"
	seating_api "gala-ticketing/internal/seating/api"
	"gala-ticketing/internal/sse"
	"gala-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
)

type services struct {
	db             *bun.DB
	catalog        *catalog.Service
	orders         *order.OrderService
	fulfiller      *fulfillment.Service
	webhook        handler.EventParser
	seating        *seating.Service
	attendees      *attendees.Service
	reports        *reports.Service
	auth           *auth.Service
	authMiddleware *auth.Middleware
	emailLog       notification_api.LogReader
	feed           *sse.OrderFeed
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

func healthHandler(db *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func newRouter(cfg *config.Config, app *services, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	catalogHandler := catalog_api.NewHandler(app.catalog, log)
	orderHandler := order_api.NewHandler(app.orders, log)
	webhookHandler := handler.NewWebhookHandler(app.webhook, app.fulfiller, log)
	seatingHandler := seating_api.NewHandler(app.seating, log)
	attendeeHandler := attendees_api.NewHandler(app.attendees, log)
	reportsHandler := reports_api.NewHandler(app.reports, log)
	authHandler := auth_api.NewHandler(app.auth, app.authMiddleware, cfg.Auth.CookieSecure, log)
	emailHandler := notification_api.NewHandler(app.emailLog, log)
	feedHandler := sse.NewHandler(app.feed, log)
	mw := app.authMiddleware

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(app.db))

		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{id}", catalogHandler.GetProduct)

		r.Post("/checkout", orderHandler.Checkout)
		r.Get("/checkout/session/{sessionId}", orderHandler.GetCheckoutSession)
		r.Get("/orders/{id}", orderHandler.GetPublicOrder)

		r.Post("/webhook/stripe", webhookHandler.HandleStripe)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(mw.RequireSession).Get("/me", authHandler.Me)
			r.Post("/forgot", authHandler.Forgot)
			r.Post("/reset", authHandler.Reset)
			r.Get("/setup-status", authHandler.SetupStatus)
			r.Post("/setup", authHandler.Setup)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireSession)

			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/stream", feedHandler.Stream)
			r.Get("/orders/{id}", orderHandler.GetOrder)
			r.Get("/orders/{id}/emails", emailHandler.ListOrderEmails)
			r.Get("/products", catalogHandler.ListAllProducts)
			r.Get("/tables", seatingHandler.ListTables)
			r.Get("/tables/unassigned/attendees", seatingHandler.ListUnassigned)
			r.Get("/tables/{id}", seatingHandler.GetTable)
			r.Get("/attendees", attendeeHandler.ListAttendees)
			r.Get("/attendees/missing-names", attendeeHandler.ListMissingNames)
			r.Get("/attendees/{id}/pass", attendeeHandler.Pass)
			r.Get("/reports/summary", reportsHandler.Summary)
			r.Get("/reports/export/{name}", reportsHandler.Export)
			r.Get("/users", authHandler.ListUsers)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireEdit)

				r.Patch("/orders/{id}", orderHandler.UpdateOrder)
				r.Post("/orders/{id}/cancel", orderHandler.CancelOrder)
				r.Post("/orders/{id}/complete", orderHandler.CompleteOrder)
				r.Post("/orders/{id}/refund", orderHandler.RefundOrder)
				r.Post("/orders/{id}/email", orderHandler.EmailOrder)

				r.Patch("/products/{id}", catalogHandler.UpdateProduct)

				r.Post("/tables", seatingHandler.CreateTable)
				r.Post("/tables/bulk", seatingHandler.BulkCreateTables)
				r.Patch("/tables/{id}", seatingHandler.UpdateTable)
				r.Delete("/tables/{id}", seatingHandler.DeleteTable)
				r.Post("/tables/{id}/assign", seatingHandler.AssignAttendees)
				r.Post("/tables/{id}/unassign/{attendeeId}", seatingHandler.UnassignAttendee)

				r.Patch("/attendees/{id}", attendeeHandler.UpdateAttendee)
				r.Post("/attendees/{id}/checkin", attendeeHandler.CheckIn)
				r.Post("/attendees/{id}/undo-checkin", attendeeHandler.UndoCheckIn)
				r.Post("/attendees/scan", attendeeHandler.Scan)

				r.Post("/users", authHandler.CreateUser)
				r.Patch("/users/{id}", authHandler.UpdateUser)
				r.Delete("/users/{id}", authHandler.DeleteUser)
			})
		})
	})

	return r
}
