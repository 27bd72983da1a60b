package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/timepay-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/timepay-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timepay-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timepay-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/timepay-backend-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/timepay-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "timepay"), slog.String("env", cfg.App.Env)))

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attendancePolicy, err := cfg.AttendancePolicy()
	if err != nil {
		return fmt.Errorf("invalid attendance policy: %w", err)
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	clk := clock.System()
	txManager := postgresql.NewTransactionManager(db)

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.AccessTokenTTL())

	attendanceSvc := attendanceService.NewAttendanceService(
		txManager,
		attendanceRepo,
		employeeRepo,
		attendancePolicy,
		clk,
	)
	payrollSvc := payrollService.NewPayrollService(
		payslipRepo,
		attendanceRepo,
		employeeRepo,
		cfg.PayrollPolicy(),
		clk,
		cfg.Payroll.BatchConcurrency,
	)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)

	router := appHTTP.NewRouter(cfg, JWTService, attendanceHandler, payrollHandler)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewAttendanceJobs(attendanceSvc, employeeRepo, attendancePolicy, clk).
			RegisterJobs(scheduler, cfg.Cron.MarkAbsentInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}
