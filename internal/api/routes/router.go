package routes

import (
	"net/http"

	"github.com/carepoint-health/appointments/backend/internal/api/handlers"
	"github.com/carepoint-health/appointments/backend/internal/api/middleware"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler      *handlers.AuthHandler
	bookingHandler   *handlers.BookingHandler
	doctorHandler    *handlers.DoctorHandler
	hospitalHandler  *handlers.HospitalHandler
	dashboardHandler *handlers.DashboardHandler

	authMiddleware *middleware.AuthMiddleware
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	authHandler *handlers.AuthHandler,
	bookingHandler *handlers.BookingHandler,
	doctorHandler *handlers.DoctorHandler,
	hospitalHandler *handlers.HospitalHandler,
	dashboardHandler *handlers.DashboardHandler,
	authMiddleware *middleware.AuthMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		authHandler:      authHandler,
		bookingHandler:   bookingHandler,
		doctorHandler:    doctorHandler,
		hospitalHandler:  hospitalHandler,
		dashboardHandler: dashboardHandler,
		authMiddleware:   authMiddleware,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/auth/register", r.authHandler.RegisterPatient)
	r.mux.HandleFunc("POST /api/auth/register-hospital", r.authHandler.RegisterHospital)
	r.mux.HandleFunc("POST /api/auth/login", r.authHandler.Login)

	// Public directory endpoints
	r.mux.HandleFunc("GET /api/hospitals/search", r.hospitalHandler.Search)
	r.mux.HandleFunc("GET /api/doctors/{id}", r.doctorHandler.GetDoctor)
	r.mux.HandleFunc("GET /api/doctors/{id}/slots", r.doctorHandler.GetSlots)
	r.mux.HandleFunc("GET /api/doctors/{id}/availability", r.doctorHandler.GetAvailability)

	// Patient endpoints
	patient := func(h http.HandlerFunc) http.HandlerFunc {
		return r.authMiddleware.RequireRole(entities.UserRolePatient, h)
	}
	r.mux.HandleFunc("POST /api/bookings", patient(r.bookingHandler.Book))
	r.mux.HandleFunc("POST /api/bookings/{id}/cancel", patient(r.bookingHandler.Cancel))
	r.mux.HandleFunc("GET /api/me/appointments", patient(r.bookingHandler.ListMine))
	r.mux.HandleFunc("GET /api/me/history", patient(r.bookingHandler.ListMyHistory))

	// Hospital admin endpoints
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return r.authMiddleware.RequireRole(entities.UserRoleHospitalAdmin, h)
	}
	r.mux.HandleFunc("POST /api/admin/doctors", admin(r.doctorHandler.CreateDoctor))
	r.mux.HandleFunc("GET /api/admin/doctors", admin(r.doctorHandler.ListDoctors))
	r.mux.HandleFunc("POST /api/admin/slots", admin(r.doctorHandler.CreateSlot))
	r.mux.HandleFunc("DELETE /api/admin/slots/{id}", admin(r.doctorHandler.DeleteSlot))
	r.mux.HandleFunc("POST /api/admin/availability", admin(r.doctorHandler.SetAvailability))
	r.mux.HandleFunc("GET /api/admin/bookings", admin(r.bookingHandler.ListForHospital))
	r.mux.HandleFunc("GET /api/admin/dashboard", admin(r.dashboardHandler.GetStats))
	r.mux.HandleFunc("GET /api/admin/patients", admin(r.dashboardHandler.ListPatients))

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
