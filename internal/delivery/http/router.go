package http

import (
	"net/http"

	"clinic-management-api/internal/delivery/http/handler"
	"clinic-management-api/internal/delivery/http/middleware"
	"clinic-management-api/internal/domain/entity"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	authHandler        *handler.AuthHandler
	doctorHandler      *handler.DoctorHandler
	patientHandler     *handler.PatientHandler
	scheduleHandler    *handler.ScheduleHandler
	appointmentHandler *handler.AppointmentHandler
	feedbackHandler    *handler.FeedbackHandler
	specialtyHandler   *handler.SpecialtyHandler
	auditLogHandler    *handler.AuditLogHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	doctorHandler *handler.DoctorHandler,
	patientHandler *handler.PatientHandler,
	scheduleHandler *handler.ScheduleHandler,
	appointmentHandler *handler.AppointmentHandler,
	feedbackHandler *handler.FeedbackHandler,
	specialtyHandler *handler.SpecialtyHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		authHandler:        authHandler,
		doctorHandler:      doctorHandler,
		patientHandler:     patientHandler,
		scheduleHandler:    scheduleHandler,
		appointmentHandler: appointmentHandler,
		feedbackHandler:    feedbackHandler,
		specialtyHandler:   specialtyHandler,
		auditLogHandler:    auditLogHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", r.authHandler.ForgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", r.authHandler.ResetPassword).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Reference data (any authenticated user)
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)
	protected.HandleFunc("/specialties", r.specialtyHandler.ListSpecialties).Methods(http.MethodGet)
	protected.HandleFunc("/schedules", r.scheduleHandler.ListSchedules).Methods(http.MethodGet)
	protected.HandleFunc("/schedules/{id}", r.scheduleHandler.GetSchedule).Methods(http.MethodGet)
	protected.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)

	// Feedback: patients submit, everyone authenticated can browse
	protected.HandleFunc("/feedbacks", r.feedbackHandler.ListFeedbacks).Methods(http.MethodGet)
	patientOnly := api.NewRoute().Subrouter()
	patientOnly.Use(r.authMiddleware.Authenticate)
	patientOnly.Use(middleware.RequirePatient)
	patientOnly.HandleFunc("/feedbacks", r.feedbackHandler.CreateFeedback).Methods(http.MethodPost)

	// Staff routes (receptionist or doctor)
	staff := api.NewRoute().Subrouter()
	staff.Use(r.authMiddleware.Authenticate)
	staff.Use(middleware.RequireStaff)
	staff.HandleFunc("/appointments", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	staff.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	staff.HandleFunc("/appointments/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPatch)

	// Receptionist routes
	receptionist := api.NewRoute().Subrouter()
	receptionist.Use(r.authMiddleware.Authenticate)
	receptionist.Use(middleware.RequireReceptionist)
	receptionist.HandleFunc("/appointments", r.appointmentHandler.Book).Methods(http.MethodPost)
	receptionist.HandleFunc("/doctors", r.doctorHandler.CreateDoctor).Methods(http.MethodPost)
	receptionist.HandleFunc("/patients", r.patientHandler.CreatePatient).Methods(http.MethodPost)
	receptionist.HandleFunc("/patients", r.patientHandler.ListPatients).Methods(http.MethodGet)
	receptionist.HandleFunc("/patients/{id}", r.patientHandler.GetPatient).Methods(http.MethodGet)
	receptionist.HandleFunc("/schedules", r.scheduleHandler.CreateSchedule).Methods(http.MethodPost)
	receptionist.HandleFunc("/schedules/{id}", r.scheduleHandler.UpdateSchedule).Methods(http.MethodPut)
	receptionist.HandleFunc("/schedules/{id}", r.scheduleHandler.DeleteSchedule).Methods(http.MethodDelete)
	receptionist.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	receptionist.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Cancellation is open to all three roles; the actor is recorded from the
	// role claim.
	cancel := api.NewRoute().Subrouter()
	cancel.Use(r.authMiddleware.Authenticate)
	cancel.Use(middleware.RequireRole(entity.RoleIDReceptionist, entity.RoleIDDoctor, entity.RoleIDPatient))
	cancel.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPatch)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
