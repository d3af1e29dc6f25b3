package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/optimizer"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	"github.com/malamapl09/Picker-Scheduler/pkg/redis"
)

// Service aggregates every use case.
type Service struct {
	Auth         AuthService
	Compliance   ComplianceService
	Optimizer    OptimizerService
	Callout      CalloutService
	Swap         SwapService
	Schedule     ScheduleService
	TimeOff      TimeOffService
	Availability AvailabilityService
	Demand       DemandService
	Notification NotificationService
	Export       ExportService
	Employee     EmployeeService
	Store        StoreService
	Report       ReportService
}

// NewService wires the services. rdb may be nil: locks become no-ops and
// logout cannot blacklist tokens.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	engine := compliance.NewEngine(compliance.RulesFromConfig(&cfg.Compliance))
	locker := NewRedisLocker(rdb, logger)
	notifier := NewNotificationService(repo, logger)

	var blacklist TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Compliance:   NewComplianceService(repo, engine, logger),
		Optimizer:    NewOptimizerService(cfg, repo, engine, optimizer.NewGreedySolver(), locker, logger),
		Callout:      NewCalloutService(cfg, repo, engine, locker, notifier, logger),
		Swap:         NewSwapService(cfg, repo, engine, notifier, logger),
		Schedule:     NewScheduleService(repo, engine, notifier, logger),
		TimeOff:      NewTimeOffService(repo, notifier, logger),
		Availability: NewAvailabilityService(repo, logger),
		Demand:       NewDemandService(repo, logger),
		Notification: notifier,
		Export:       NewExportService(repo, logger),
		Employee:     NewEmployeeService(repo, logger),
		Store:        NewStoreService(repo, logger),
		Report:       NewReportService(repo, engine, logger),
	}
}

// ── Shared errors ──

var (
	ErrForbidden           = errors.New("operation not permitted for this user")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrStoreNotFound       = errors.New("store not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeInactive    = errors.New("employee is not active")
	ErrBusy                = errors.New("another operation on this resource is in progress")
	ErrComplianceViolation = errors.New("labor rule violation")
)

// ComplianceError carries the hard findings that blocked a write.
type ComplianceError struct {
	Findings []compliance.Finding
}

func (e *ComplianceError) Error() string {
	codes := make([]string, 0, len(e.Findings))
	for _, f := range e.Findings {
		codes = append(codes, string(f.Code))
	}
	return fmt.Sprintf("%s: %s", ErrComplianceViolation, strings.Join(codes, ", "))
}

// Unwrap lets errors.Is match ErrComplianceViolation.
func (e *ComplianceError) Unwrap() error { return ErrComplianceViolation }

func newComplianceError(r compliance.Result) *ComplianceError {
	return &ComplianceError{Findings: r.Violations}
}

// Slot an (employee, date) pair an apply could not write.
type Slot struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
}

// Conflict one reason an operation could not proceed.
type Conflict struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConflictError wraps a conflict sentinel with the offending slots or conflicts.
type ConflictError struct {
	Err       error      `json:"-"`
	Slots     []Slot     `json:"slots,omitempty"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

func (e *ConflictError) Error() string {
	n := len(e.Slots) + len(e.Conflicts)
	return fmt.Sprintf("%s (%d conflicts)", e.Err, n)
}

// Unwrap returns the sentinel.
func (e *ConflictError) Unwrap() error { return e.Err }

// ── Time helpers ──

const timestampLayout = time.RFC3339

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}

func strPtr(s string) *string { return &s }

// storeLocation resolves a store timezone, falling back to UTC.
func storeLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
