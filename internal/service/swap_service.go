package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Swap errors ──

var (
	ErrSwapNotFound     = errors.New("swap not found")
	ErrSwapNotPending   = errors.New("swap is not pending")
	ErrSwapNotAccepted  = errors.New("swap is not accepted")
	ErrSwapConflict     = errors.New("swap was changed by another request")
	ErrSwapDirected     = errors.New("swap is directed at another shift")
	ErrSwapSameEmployee = errors.New("both shifts belong to the same employee")
	ErrShiftInPast      = errors.New("shift has already started")
	ErrShiftNotActive   = errors.New("shift is not active")
)

// SwapService shift trades between employees.
type SwapService interface {
	Create(ctx context.Context, caller jwt.Identity, req *dto.CreateSwapRequest) (*dto.SwapResponse, error)
	// Accept offers the caller's shift in exchange. One concurrent acceptor wins.
	Accept(ctx context.Context, caller jwt.Identity, id string, req *dto.AcceptSwapRequest) (*dto.AcceptSwapResponse, error)
	// Approve exchanges the two shifts after re-validating both employees.
	Approve(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error)
	Deny(ctx context.Context, caller jwt.Identity, id string, req *dto.DenySwapRequest) (*dto.SwapResponse, error)
	Cancel(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error)
	ListAvailable(ctx context.Context, caller jwt.Identity) ([]dto.SwapResponse, error)
	List(ctx context.Context, caller jwt.Identity, req *dto.SwapListRequest) ([]dto.SwapResponse, int64, error)
	Get(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error)
}

type swapService struct {
	repo              *repository.Repository
	engine            *compliance.Engine
	notifier          Notifier
	logger            *zap.Logger
	acceptorCanCancel bool
	now               func() time.Time
}

// NewSwapService creates a SwapService.
func NewSwapService(cfg *config.Config, repo *repository.Repository, engine *compliance.Engine, notifier Notifier, logger *zap.Logger) SwapService {
	return &swapService{
		repo:              repo,
		engine:            engine,
		notifier:          notifier,
		logger:            logger,
		acceptorCanCancel: cfg.Swap.AcceptorCanCancel,
		now:               time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// Workflow
// ════════════════════════════════════════════════════════════

func (s *swapService) Create(ctx context.Context, caller jwt.Identity, req *dto.CreateSwapRequest) (*dto.SwapResponse, error) {
	offered, err := s.loadTradableShift(ctx, req.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, offered.Employee); err != nil {
		return nil, err
	}

	swap := &model.ShiftSwap{
		RequesterShiftID: offered.ShiftID,
		Notes:            req.Notes,
		Status:           model.SwapPending,
	}
	swap.CreatedBy = actor(caller)

	var target *model.Shift
	if req.RequestedShiftID != nil && *req.RequestedShiftID != "" {
		if target, err = s.loadTradableShift(ctx, *req.RequestedShiftID); err != nil {
			return nil, err
		}
		if target.EmployeeID == offered.EmployeeID {
			return nil, ErrSwapSameEmployee
		}
		if target.Employee.StoreID != offered.Employee.StoreID {
			return nil, ErrEmployeeOtherStore
		}
		swap.RequestedShiftID = strPtr(target.ShiftID)
	}

	if err := s.repo.Swap.Create(ctx, swap); err != nil {
		s.logger.Error("create swap failed", zap.Error(err))
		return nil, err
	}

	if target != nil {
		notify(ctx, s.notifier, s.logger, s.swapEvent(model.NotifySwapRequested, swap, offered,
			"Swap requested", "A coworker asked to trade shifts with you.", target.EmployeeID))
	}
	s.logger.Info("swap created", zap.String("swap_id", swap.ShiftSwapID), zap.Bool("directed", target != nil))
	return s.reload(ctx, swap.ShiftSwapID)
}

func (s *swapService) Accept(ctx context.Context, caller jwt.Identity, id string, req *dto.AcceptSwapRequest) (*dto.AcceptSwapResponse, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.Status != model.SwapPending {
		return nil, ErrSwapNotPending
	}
	if swap.RequestedShiftID != nil && *swap.RequestedShiftID != req.ShiftID {
		return nil, ErrSwapDirected
	}

	offered, err := s.loadShift(ctx, swap.RequesterShiftID)
	if err != nil {
		return nil, err
	}
	if !offered.Status.Active() {
		return nil, ErrShiftNotActive
	}
	// a directed swap already counts as open on the requested shift
	var allow []string
	if swap.RequestedShiftID != nil {
		allow = append(allow, swap.ShiftSwapID)
	}
	accepting, err := s.loadTradableShift(ctx, req.ShiftID, allow...)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, accepting.Employee); err != nil {
		return nil, err
	}
	if accepting.EmployeeID == offered.EmployeeID {
		return nil, ErrSwapSameEmployee
	}
	if accepting.Employee.StoreID != offered.Employee.StoreID {
		return nil, ErrEmployeeOtherStore
	}

	projected, err := s.projectExchange(ctx, s.repo, offered, accepting)
	if err != nil {
		s.logger.Error("project swap failed", zap.Error(err))
		return nil, err
	}
	warnings := append(append([]compliance.Finding{}, projected.Violations...), projected.Warnings...)

	err = s.repo.Swap.Transition(ctx, swap.ShiftSwapID, []model.SwapStatus{model.SwapPending}, map[string]interface{}{
		"status":             model.SwapAccepted,
		"requested_shift_id": accepting.ShiftID,
		"accepted_at":        s.now(),
		"updated_by":         actor(caller),
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("accept swap failed", zap.String("swap_id", id), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, s.swapEvent(model.NotifySwapRequested, swap, offered,
		"Swap accepted", "Your swap was accepted and awaits manager approval.", offered.EmployeeID))

	resp, err := s.reload(ctx, swap.ShiftSwapID)
	if err != nil {
		return nil, err
	}
	return &dto.AcceptSwapResponse{Swap: *resp, Warnings: warnings}, nil
}

func (s *swapService) Approve(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error) {
	swap, err := s.loadForManager(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if swap.Status != model.SwapAccepted || swap.RequestedShiftID == nil {
		return nil, ErrSwapNotAccepted
	}

	var offered, accepting *model.Shift
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		current, err := tx.Swap.GetByID(ctx, swap.ShiftSwapID)
		if err != nil {
			return err
		}
		if current.Status != model.SwapAccepted || current.RequestedShiftID == nil {
			return ErrSwapConflict
		}
		if offered, err = tx.Shift.GetByID(ctx, current.RequesterShiftID); err != nil {
			return err
		}
		if accepting, err = tx.Shift.GetByID(ctx, *current.RequestedShiftID); err != nil {
			return err
		}
		if !offered.Status.Active() || !accepting.Status.Active() {
			return ErrShiftNotActive
		}
		if s.hasStarted(ctx, tx, offered) || s.hasStarted(ctx, tx, accepting) {
			return ErrShiftInPast
		}
		if offered.EmployeeID == accepting.EmployeeID {
			return ErrSwapSameEmployee
		}

		projected, err := s.projectExchange(ctx, tx, offered, accepting)
		if err != nil {
			return err
		}
		if !projected.Compliant {
			return newComplianceError(projected)
		}

		requester, acceptor := offered.EmployeeID, accepting.EmployeeID
		offered.EmployeeID, accepting.EmployeeID = acceptor, requester
		offered.UpdatedBy, accepting.UpdatedBy = actor(caller), actor(caller)
		if err := tx.Shift.Update(ctx, offered); err != nil {
			return err
		}
		if err := tx.Shift.Update(ctx, accepting); err != nil {
			return err
		}
		if err := bumpSchedules(ctx, tx, caller, offered, accepting); err != nil {
			return err
		}

		err = tx.Swap.Transition(ctx, current.ShiftSwapID, []model.SwapStatus{model.SwapAccepted}, map[string]interface{}{
			"status":      model.SwapApproved,
			"reviewed_by": actor(caller),
			"reviewed_at": s.now(),
			"updated_by":  actor(caller),
		})
		if err != nil {
			return err
		}

		return tx.ChangeLog.BatchCreate(ctx, []model.ScheduleChangeLog{
			{
				ScheduleID:         offered.ScheduleID,
				ShiftID:            strPtr(offered.ShiftID),
				OriginalEmployeeID: strPtr(requester),
				NewEmployeeID:      strPtr(acceptor),
				ChangeType:         model.ChangeSwap,
				OperatorID:         actor(caller),
			},
			{
				ScheduleID:         accepting.ScheduleID,
				ShiftID:            strPtr(accepting.ShiftID),
				OriginalEmployeeID: strPtr(acceptor),
				NewEmployeeID:      strPtr(requester),
				ChangeType:         model.ChangeSwap,
				OperatorID:         actor(caller),
			},
		})
	})
	if err != nil {
		var cv *ComplianceError
		switch {
		case errors.As(err, &cv), errors.Is(err, ErrSwapConflict), errors.Is(err, ErrShiftNotActive),
			errors.Is(err, ErrSwapSameEmployee), errors.Is(err, ErrShiftInPast):
			return nil, err
		case errors.Is(err, pkgerrors.ErrStaleState), errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrSwapConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrShiftNotFound
		}
		s.logger.Error("approve swap failed", zap.String("swap_id", id), zap.Error(err))
		return nil, err
	}

	notify(ctx, s.notifier, s.logger, s.swapEvent(model.NotifySwapApproved, swap, offered,
		"Swap approved", "Your shift swap was approved.", offered.EmployeeID, accepting.EmployeeID))
	s.logger.Info("swap approved", zap.String("swap_id", swap.ShiftSwapID))
	return s.reload(ctx, swap.ShiftSwapID)
}

func (s *swapService) Deny(ctx context.Context, caller jwt.Identity, id string, req *dto.DenySwapRequest) (*dto.SwapResponse, error) {
	swap, err := s.loadForManager(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if _, err := swap.Status.Next(model.SwapEventDeny); err != nil {
		return nil, err
	}
	err = s.repo.Swap.Transition(ctx, swap.ShiftSwapID, []model.SwapStatus{model.SwapPending, model.SwapAccepted}, map[string]interface{}{
		"status":      model.SwapDenied,
		"deny_reason": req.Reason,
		"reviewed_by": actor(caller),
		"reviewed_at": s.now(),
		"updated_by":  actor(caller),
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("deny swap failed", zap.String("swap_id", id), zap.Error(err))
		return nil, err
	}

	recipients := []string{}
	if swap.RequesterShift != nil {
		recipients = append(recipients, swap.RequesterShift.EmployeeID)
	}
	if swap.Status == model.SwapAccepted && swap.RequestedShift != nil {
		recipients = append(recipients, swap.RequestedShift.EmployeeID)
	}
	notify(ctx, s.notifier, s.logger, s.swapEvent(model.NotifySwapDenied, swap, swap.RequesterShift,
		"Swap denied", denyMessage(req.Reason), recipients...))
	return s.reload(ctx, swap.ShiftSwapID)
}

func (s *swapService) Cancel(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCancel(caller, swap); err != nil {
		return nil, err
	}
	if _, err := swap.Status.Next(model.SwapEventCancel); err != nil {
		return nil, err
	}
	err = s.repo.Swap.Transition(ctx, swap.ShiftSwapID, []model.SwapStatus{model.SwapPending, model.SwapAccepted}, map[string]interface{}{
		"status":     model.SwapCancelled,
		"updated_by": actor(caller),
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStaleState) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("cancel swap failed", zap.String("swap_id", id), zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, swap.ShiftSwapID)
}

// authorizeCancel the requester and store managers always; the acceptor of
// an accepted swap only when enabled.
func (s *swapService) authorizeCancel(caller jwt.Identity, swap *model.ShiftSwap) error {
	if swap.RequesterShift == nil {
		return ErrShiftNotFound
	}
	if caller.IsManager() && swap.RequesterShift.Employee != nil {
		return authorizeStore(caller, swap.RequesterShift.Employee.StoreID)
	}
	if caller.EmployeeID != "" && caller.EmployeeID == swap.RequesterShift.EmployeeID {
		return nil
	}
	if s.acceptorCanCancel && swap.Status == model.SwapAccepted &&
		swap.RequestedShift != nil && caller.EmployeeID != "" && caller.EmployeeID == swap.RequestedShift.EmployeeID {
		return nil
	}
	return ErrForbidden
}

// ════════════════════════════════════════════════════════════
// Queries
// ════════════════════════════════════════════════════════════

func (s *swapService) ListAvailable(ctx context.Context, caller jwt.Identity) ([]dto.SwapResponse, error) {
	if caller.EmployeeID == "" {
		return nil, ErrNoEmployeeProfile
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, caller.EmployeeID)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if store, err := s.repo.Store.GetByID(ctx, emp.StoreID); err == nil {
		loc = storeLocation(store.Timezone)
	}
	now := s.now().In(loc)

	swaps, err := s.repo.Swap.ListAvailable(ctx, emp.StoreID, emp.EmployeeID, model.DateOnly(now))
	if err != nil {
		s.logger.Error("list available swaps failed", zap.Error(err))
		return nil, err
	}
	out := make([]dto.SwapResponse, 0, len(swaps))
	for i := range swaps {
		rs := swaps[i].RequesterShift
		if rs == nil || !rs.Status.Active() || !rs.StartAt(loc).After(now) {
			continue
		}
		out = append(out, toSwapResponse(&swaps[i]))
	}
	return out, nil
}

func (s *swapService) List(ctx context.Context, caller jwt.Identity, req *dto.SwapListRequest) ([]dto.SwapResponse, int64, error) {
	f := repository.SwapFilter{
		StoreID:    req.StoreID,
		EmployeeID: req.EmployeeID,
		Status:     model.SwapStatus(req.Status),
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
	if caller.IsManager() {
		if caller.StoreID != "" {
			if f.StoreID != "" && f.StoreID != caller.StoreID {
				return nil, 0, ErrForbidden
			}
			f.StoreID = caller.StoreID
		}
	} else {
		if caller.EmployeeID == "" {
			return nil, 0, ErrNoEmployeeProfile
		}
		f.StoreID = ""
		f.EmployeeID = caller.EmployeeID
	}

	swaps, total, err := s.repo.Swap.List(ctx, f)
	if err != nil {
		s.logger.Error("list swaps failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.SwapResponse, 0, len(swaps))
	for i := range swaps {
		out = append(out, toSwapResponse(&swaps[i]))
	}
	return out, total, nil
}

func (s *swapService) Get(ctx context.Context, caller jwt.Identity, id string) (*dto.SwapResponse, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(caller, swap) {
		return nil, ErrForbidden
	}
	resp := toSwapResponse(swap)
	return &resp, nil
}

func (s *swapService) canView(caller jwt.Identity, swap *model.ShiftSwap) bool {
	if swap.RequesterShift != nil && swap.RequesterShift.Employee != nil && caller.IsManager() {
		return authorizeStore(caller, swap.RequesterShift.Employee.StoreID) == nil
	}
	if caller.EmployeeID == "" {
		return false
	}
	if swap.RequesterShift != nil && swap.RequesterShift.EmployeeID == caller.EmployeeID {
		return true
	}
	return swap.RequestedShift != nil && swap.RequestedShift.EmployeeID == caller.EmployeeID
}

// ── Helpers ──

// projectExchange checks both employees as if the two shifts had traded owners.
func (s *swapService) projectExchange(ctx context.Context, repo *repository.Repository, offered, accepting *model.Shift) (compliance.Result, error) {
	requester, err := repo.Employee.GetByID(ctx, offered.EmployeeID)
	if err != nil {
		return compliance.Result{}, err
	}
	acceptor, err := repo.Employee.GetByID(ctx, accepting.EmployeeID)
	if err != nil {
		return compliance.Result{}, err
	}
	gets, ok := toComplianceShift(accepting)
	if !ok {
		return compliance.Result{}, ErrInvalidTimeRange
	}
	gives, ok := toComplianceShift(offered)
	if !ok {
		return compliance.Result{}, ErrInvalidTimeRange
	}
	gets.EmployeeID, gives.EmployeeID = requester.EmployeeID, acceptor.EmployeeID

	forRequester, err := checkProposedShift(ctx, repo, s.engine, requester, gets, offered.ShiftID)
	if err != nil {
		return compliance.Result{}, err
	}
	forAcceptor, err := checkProposedShift(ctx, repo, s.engine, acceptor, gives, accepting.ShiftID)
	if err != nil {
		return compliance.Result{}, err
	}
	return compliance.Result{
		Compliant:  forRequester.Compliant && forAcceptor.Compliant,
		Violations: append(forRequester.Violations, forAcceptor.Violations...),
		Warnings:   append(forRequester.Warnings, forAcceptor.Warnings...),
		Info:       append(forRequester.Info, forAcceptor.Info...),
	}, nil
}

// bumpSchedules advances the version of every schedule the shifts belong to.
func bumpSchedules(ctx context.Context, tx *repository.Repository, caller jwt.Identity, shifts ...*model.Shift) error {
	done := map[string]bool{}
	for _, sh := range shifts {
		if done[sh.ScheduleID] {
			continue
		}
		done[sh.ScheduleID] = true
		schedule, err := tx.Schedule.GetByID(ctx, sh.ScheduleID)
		if err != nil {
			return err
		}
		if err := tx.Schedule.BumpVersion(ctx, schedule.ScheduleID, schedule.Version, actor(caller)); err != nil {
			return err
		}
	}
	return nil
}

// loadTradableShift an active, future shift outside any open swap other than allowSwap.
func (s *swapService) loadTradableShift(ctx context.Context, id string, allowSwap ...string) (*model.Shift, error) {
	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shift.Status.Active() {
		return nil, ErrShiftNotActive
	}
	if shift.Employee == nil {
		if shift.Employee, err = loadEmployee(ctx, s.repo, s.logger, shift.EmployeeID); err != nil {
			return nil, err
		}
	}
	if s.hasStarted(ctx, s.repo, shift) {
		return nil, ErrShiftInPast
	}

	open, err := s.repo.Swap.CountOpenForShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("count open swaps failed", zap.Error(err))
		return nil, err
	}
	if open > int64(len(allowSwap)) {
		return nil, ErrShiftInOpenSwap
	}
	return shift, nil
}

// hasStarted reports whether shift began at or before now in its store's zone.
func (s *swapService) hasStarted(ctx context.Context, repo *repository.Repository, shift *model.Shift) bool {
	var storeID string
	switch {
	case shift.Schedule != nil:
		storeID = shift.Schedule.StoreID
	case shift.Employee != nil:
		storeID = shift.Employee.StoreID
	}
	loc := time.UTC
	if store, err := repo.Store.GetByID(ctx, storeID); err == nil {
		loc = storeLocation(store.Timezone)
	}
	return !shift.StartAt(loc).After(s.now())
}

func (s *swapService) loadShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (s *swapService) load(ctx context.Context, id string) (*model.ShiftSwap, error) {
	swap, err := s.repo.Swap.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("load swap failed", zap.Error(err))
		return nil, err
	}
	return swap, nil
}

func (s *swapService) loadForManager(ctx context.Context, caller jwt.Identity, id string) (*model.ShiftSwap, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	swap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if swap.RequesterShift == nil {
		return nil, ErrShiftNotFound
	}
	storeID := ""
	if swap.RequesterShift.Employee != nil {
		storeID = swap.RequesterShift.Employee.StoreID
	} else {
		emp, err := loadEmployee(ctx, s.repo, s.logger, swap.RequesterShift.EmployeeID)
		if err != nil {
			return nil, err
		}
		storeID = emp.StoreID
	}
	if err := authorizeStore(caller, storeID); err != nil {
		return nil, err
	}
	return swap, nil
}

func (s *swapService) reload(ctx context.Context, id string) (*dto.SwapResponse, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSwapResponse(swap)
	return &resp, nil
}

func (s *swapService) swapEvent(t model.NotificationType, swap *model.ShiftSwap, shift *model.Shift, title, message string, recipients ...string) Event {
	payload := map[string]interface{}{"swap_id": swap.ShiftSwapID}
	if shift != nil {
		payload["shift_id"] = shift.ShiftID
		payload["date"] = shift.Date.Format(model.DateLayout)
	}
	return Event{
		Type:        t,
		EmployeeIDs: recipients,
		Title:       title,
		Message:     message,
		Payload:     payload,
		RelatedType: "shift_swap",
		RelatedID:   swap.ShiftSwapID,
	}
}

func denyMessage(reason string) string {
	if reason == "" {
		return "Your shift swap was denied."
	}
	return "Your shift swap was denied: " + reason
}

func toSwapResponse(sw *model.ShiftSwap) dto.SwapResponse {
	resp := dto.SwapResponse{
		ID:         sw.ShiftSwapID,
		Status:     string(sw.Status),
		Notes:      sw.Notes,
		AcceptedAt: formatTimestampPtr(sw.AcceptedAt),
		ReviewedBy: sw.ReviewedBy,
		ReviewedAt: formatTimestampPtr(sw.ReviewedAt),
		DenyReason: sw.DenyReason,
		Version:    sw.Version,
		CreatedAt:  formatTimestamp(sw.CreatedAt),
	}
	if sw.RequesterShift != nil {
		r := toShiftResponse(sw.RequesterShift)
		resp.RequesterShift = &r
	}
	if sw.RequestedShift != nil {
		r := toShiftResponse(sw.RequestedShift)
		resp.RequestedShift = &r
	}
	return resp
}
