package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/timepay-backend-go/internal/config"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timepay-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, attendanceHandler AttendanceHandler, payrollHandler PayrollHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timepay"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {

				// Own ledger
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
						r.Post("/check-in", attendanceHandler.CheckIn)
						r.Post("/check-out", attendanceHandler.CheckOut)
						r.Post("/breaks/start", attendanceHandler.StartBreak)
						r.Post("/breaks/end", attendanceHandler.EndBreak)
					})

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
						r.Get("/today", attendanceHandler.GetTodayStatus)
						r.Get("/my", attendanceHandler.GetMyAttendance)
					})
				})

				r.Route("/employees/{employeeID}", func(r chi.Router) {
					validEmployee := middleware.RequireUUIDParam("employeeID", "employee_id")

					r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll), validEmployee).Get("/", attendanceHandler.ListEmployeeAttendance)
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll), validEmployee).Get("/days/{date}", attendanceHandler.GetEmployeeDay)
					r.With(middleware.RequirePermission(user.PermissionAttendanceManage), validEmployee).Post("/absences", attendanceHandler.MarkAbsent)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/payslips", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionPayrollViewAll)).Get("/", payrollHandler.ListPayslips)
					r.With(middleware.RequirePermission(user.PermissionPayrollProcess)).Post("/", payrollHandler.CalculatePayslip)

					r.With(middleware.RequireManager, middleware.RequirePermission(user.PermissionPayrollProcess)).Post("/batch", payrollHandler.CalculateBatch)

					r.Route("/{id}", func(r chi.Router) {
						validPayslip := middleware.RequireUUIDParam("id", "id")

						r.With(middleware.RequirePermission(user.PermissionPayrollViewAll), validPayslip).Get("/", payrollHandler.GetPayslip)

						// Owner and manager only
						r.Group(func(r chi.Router) {
							r.Use(middleware.RequireManager)
							r.Use(middleware.RequirePermission(user.PermissionPayrollProcess))
							r.With(validPayslip).Patch("/status", payrollHandler.UpdatePayslipStatus)
						})
					})
				})

				r.With(middleware.RequirePermission(user.PermissionPayrollViewAll)).Get("/summary", payrollHandler.GetPeriodSummary)
			})
		})
	})
	return r
}
