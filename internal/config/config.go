package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timepay-backend-go/internal/domain/payroll"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
	Cron       CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

// AttendanceConfig holds the day classification thresholds.
type AttendanceConfig struct {
	Timezone             string
	WorkdayStart         string // HH:MM, local time
	LateThresholdMinutes int
	HalfDayHours         decimal.Decimal
	StandardDayHours     decimal.Decimal
}

type PayrollConfig struct {
	StandardMonthDays  int
	OvertimeMultiplier decimal.Decimal
	TransportAllowance decimal.Decimal
	MealAllowance      decimal.Decimal
	MedicalAllowance   decimal.Decimal
	OtherAllowance     decimal.Decimal
	InsuranceRate      decimal.Decimal
	ProvidentFundRate  decimal.Decimal
	OtherDeduction     decimal.Decimal
	TaxSchedule        payroll.TaxSchedule
	InitialStatus      string
	BatchConcurrency   int
}

type CronConfig struct {
	Enabled            bool
	MarkAbsentInterval time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	p := &envParser{}
	config := &Config{}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.getInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "timepay"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.getInt("DB_MAX_CONNS", 25)),
		MinConns: int32(p.getInt("DB_MIN_CONNS", 5)),
	}

	// Application configuration
	config.App = AppConfig{
		Port:        p.getInt("APP_PORT", 8080),
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Attendance = AttendanceConfig{
		Timezone:             getEnv("ATTENDANCE_TIMEZONE", "Asia/Jakarta"),
		WorkdayStart:         getEnv("ATTENDANCE_WORKDAY_START", "08:00"),
		LateThresholdMinutes: p.getInt("ATTENDANCE_LATE_THRESHOLD_MINUTES", 60),
		HalfDayHours:         p.getDecimal("ATTENDANCE_HALF_DAY_HOURS", "4"),
		StandardDayHours:     p.getDecimal("ATTENDANCE_STANDARD_DAY_HOURS", "8"),
	}

	config.Payroll = PayrollConfig{
		StandardMonthDays:  p.getInt("PAYROLL_STANDARD_MONTH_DAYS", 30),
		OvertimeMultiplier: p.getDecimal("PAYROLL_OVERTIME_MULTIPLIER", "1.5"),
		TransportAllowance: p.getDecimal("PAYROLL_TRANSPORT_ALLOWANCE", "5000"),
		MealAllowance:      p.getDecimal("PAYROLL_MEAL_ALLOWANCE", "3000"),
		MedicalAllowance:   p.getDecimal("PAYROLL_MEDICAL_ALLOWANCE", "2000"),
		OtherAllowance:     p.getDecimal("PAYROLL_OTHER_ALLOWANCE", "0"),
		InsuranceRate:      p.getDecimal("PAYROLL_INSURANCE_RATE", "0.02"),
		ProvidentFundRate:  p.getDecimal("PAYROLL_PROVIDENT_FUND_RATE", "0.08"),
		OtherDeduction:     p.getDecimal("PAYROLL_OTHER_DEDUCTION", "0"),
		TaxSchedule:        p.getTaxSchedule("PAYROLL_TAX_BRACKETS", payroll.DefaultTaxSchedule()),
		InitialStatus:      getEnv("PAYROLL_INITIAL_STATUS", string(payroll.PayslipStatusDraft)),
		BatchConcurrency:   p.getInt("PAYROLL_BATCH_CONCURRENCY", 4),
	}

	config.Cron = CronConfig{
		Enabled:            p.getBool("CRON_ENABLED", false),
		MarkAbsentInterval: p.getDuration("CRON_MARK_ABSENT_INTERVAL", 24*time.Hour),
	}

	if err := p.err(); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := c.AttendancePolicy(); err != nil {
		return err
	}
	if c.Attendance.LateThresholdMinutes < 0 {
		return fmt.Errorf("ATTENDANCE_LATE_THRESHOLD_MINUTES must not be negative")
	}
	if !c.Attendance.StandardDayHours.IsPositive() {
		return fmt.Errorf("ATTENDANCE_STANDARD_DAY_HOURS must be positive")
	}
	if c.Payroll.StandardMonthDays <= 0 {
		return fmt.Errorf("PAYROLL_STANDARD_MONTH_DAYS must be positive")
	}
	if err := c.Payroll.TaxSchedule.Validate(); err != nil {
		return fmt.Errorf("invalid PAYROLL_TAX_BRACKETS: %w", err)
	}
	switch payroll.PayslipStatus(c.Payroll.InitialStatus) {
	case payroll.PayslipStatusDraft, payroll.PayslipStatusProcessed:
	default:
		return fmt.Errorf("PAYROLL_INITIAL_STATUS must be 'draft' or 'processed'")
	}
	if c.Payroll.BatchConcurrency < 1 {
		return fmt.Errorf("PAYROLL_BATCH_CONCURRENCY must be at least 1")
	}
	if c.Cron.Enabled && c.Cron.MarkAbsentInterval <= 0 {
		return fmt.Errorf("CRON_MARK_ABSENT_INTERVAL must be positive")
	}
	return nil
}

// AttendancePolicy builds the ledger policy from the attendance section.
func (c *Config) AttendancePolicy() (attendance.Policy, error) {
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid ATTENDANCE_TIMEZONE %q: %w", c.Attendance.Timezone, err)
	}

	start, err := time.Parse("15:04", c.Attendance.WorkdayStart)
	if err != nil {
		return attendance.Policy{}, fmt.Errorf("invalid ATTENDANCE_WORKDAY_START %q: must be HH:MM", c.Attendance.WorkdayStart)
	}

	return attendance.Policy{
		Location:         loc,
		WorkdayStart:     time.Duration(start.Hour())*time.Hour + time.Duration(start.Minute())*time.Minute,
		LateThreshold:    time.Duration(c.Attendance.LateThresholdMinutes) * time.Minute,
		HalfDayHours:     c.Attendance.HalfDayHours,
		StandardDayHours: c.Attendance.StandardDayHours,
	}, nil
}

// PayrollPolicy builds the calculator policy from the payroll section. The
// standard day length is shared with the attendance ledger.
func (c *Config) PayrollPolicy() payroll.Policy {
	return payroll.Policy{
		StandardMonthDays:  c.Payroll.StandardMonthDays,
		StandardDayHours:   c.Attendance.StandardDayHours,
		OvertimeMultiplier: c.Payroll.OvertimeMultiplier,
		Allowances: payroll.Allowances{
			Transport: c.Payroll.TransportAllowance,
			Meal:      c.Payroll.MealAllowance,
			Medical:   c.Payroll.MedicalAllowance,
			Other:     c.Payroll.OtherAllowance,
		},
		InsuranceRate:     c.Payroll.InsuranceRate,
		ProvidentFundRate: c.Payroll.ProvidentFundRate,
		OtherDeduction:    c.Payroll.OtherDeduction,
		TaxSchedule:       c.Payroll.TaxSchedule,
		InitialStatus:     payroll.PayslipStatus(c.Payroll.InitialStatus),
	}
}

// AccessTokenTTL returns the parsed access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.AccessExpiration)
	if err != nil {
		return time.Hour
	}
	return d
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// envParser reads typed variables and collects every parse failure.
type envParser struct {
	errs []error
}

func (p *envParser) getInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) getBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) getDecimal(key, fallback string) decimal.Decimal {
	v, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return decimal.RequireFromString(fallback)
	}
	return v
}

func (p *envParser) getTaxSchedule(key string, fallback payroll.TaxSchedule) payroll.TaxSchedule {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := payroll.ParseTaxSchedule(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *envParser) err() error {
	return errors.Join(p.errs...)
}
