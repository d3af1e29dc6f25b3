package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

func setupCalloutService() (*fixture, CalloutService) {
	f := newFixture()
	svc := NewCalloutService(testConfig(), f.db.repository(), testEngine(), NewRedisLocker(nil, zap.NewNop()), testNotifier(f.db), zap.NewNop())
	svc.(*calloutService).now = fixedClock()
	return f, svc
}

// calledOut seeds alice's Wednesday shift and records her call-out.
func calledOut(t *testing.T, f *fixture, svc CalloutService) {
	t.Helper()
	f.shiftOn("s-wed", f.alice, "2026-03-04", "09:00", "15:00", 0)
	if _, err := svc.MarkCallout(context.Background(), f.as(f.alice), "s-wed", &dto.CalloutRequest{Reason: "sick"}); err != nil {
		t.Fatalf("MarkCallout: %v", err)
	}
}

// ── MarkCallout ──

func TestCalloutService_MarkCallout(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)

	sh := f.db.shift("s-wed")
	if sh.Status != model.ShiftCalledOut {
		t.Fatalf("expected called_out, got %s", sh.Status)
	}
	if sh.OriginalEmployeeID == nil || *sh.OriginalEmployeeID != f.alice.EmployeeID {
		t.Errorf("expected original employee recorded, got %v", sh.OriginalEmployeeID)
	}
	if sh.CalloutTime == nil || !sh.CalloutTime.Equal(testNow) {
		t.Errorf("expected callout time %v, got %v", testNow, sh.CalloutTime)
	}
	if len(f.db.changeLogs) != 1 || f.db.changeLogs[0].ChangeType != model.ChangeCallout {
		t.Errorf("expected one callout change log, got %+v", f.db.changeLogs)
	}
}

func TestCalloutService_MarkCallout_Twice(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)

	_, err := svc.MarkCallout(context.Background(), f.manager, "s-wed", &dto.CalloutRequest{Reason: "again"})
	if !errors.Is(err, ErrShiftNotScheduled) {
		t.Fatalf("expected ErrShiftNotScheduled, got %v", err)
	}
}

func TestCalloutService_MarkCallout_OtherEmployee(t *testing.T) {
	f, svc := setupCalloutService()
	f.shiftOn("s-wed", f.alice, "2026-03-04", "09:00", "15:00", 0)

	_, err := svc.MarkCallout(context.Background(), f.as(f.bob), "s-wed", &dto.CalloutRequest{Reason: "sick"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// ── FindReplacements ──

func TestCalloutService_FindReplacements_RankedAndRepeatable(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)
	dave := f.db.addEmployee(model.Employee{EmployeeID: "emp-dave", StoreID: testStoreID, FirstName: "Dave", LastName: "Diaz"})
	// bob already works Wednesday evening
	f.shiftOn("s-bob-wed", f.bob, "2026-03-04", "16:00", "20:00", 0)
	// carol is off that week
	f.db.timeOff["to-carol"] = &model.TimeOffRequest{TimeOffRequestID: "to-carol", EmployeeID: f.carol.EmployeeID,
		StartDate: mustDate("2026-03-03"), EndDate: mustDate("2026-03-05"), Status: model.TimeOffApproved}

	first, err := svc.FindReplacements(context.Background(), f.manager, "s-wed")
	if err != nil {
		t.Fatalf("FindReplacements: %v", err)
	}
	if len(first.Candidates) != 3 {
		t.Fatalf("expected 3 candidates without the absent employee, got %d", len(first.Candidates))
	}
	top := first.Candidates[0]
	if top.EmployeeID != dave.EmployeeID || !top.IsAvailable || len(top.Conflicts) != 0 {
		t.Errorf("expected dave first without conflicts, got %+v", top)
	}
	codes := map[string]string{}
	for _, c := range first.Candidates[1:] {
		if len(c.Conflicts) == 0 {
			t.Fatalf("expected conflicts for %s", c.EmployeeID)
		}
		codes[c.EmployeeID] = c.Conflicts[0].Code
	}
	if codes[f.bob.EmployeeID] != ConflictAlreadyScheduled {
		t.Errorf("expected bob already_scheduled, got %q", codes[f.bob.EmployeeID])
	}
	if codes[f.carol.EmployeeID] != ConflictTimeOff {
		t.Errorf("expected carol time_off, got %q", codes[f.carol.EmployeeID])
	}

	second, err := svc.FindReplacements(context.Background(), f.manager, "s-wed")
	if err != nil {
		t.Fatalf("FindReplacements: %v", err)
	}
	if !reflect.DeepEqual(first.Candidates, second.Candidates) {
		t.Error("repeated calls over unchanged data must return identical candidates")
	}
}

func TestCalloutService_FindReplacements_ManagerOnly(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)

	if _, err := svc.FindReplacements(context.Background(), f.as(f.bob), "s-wed"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// ── AssignReplacement ──

func TestCalloutService_Assign_ConflictsNeedForce(t *testing.T) {
	f, svc := setupCalloutService()
	ctx := context.Background()
	calledOut(t, f, svc)
	f.db.timeOff["to-carol"] = &model.TimeOffRequest{TimeOffRequestID: "to-carol", EmployeeID: f.carol.EmployeeID,
		StartDate: mustDate("2026-03-04"), EndDate: mustDate("2026-03-04"), Status: model.TimeOffApproved}
	logsBefore := len(f.db.changeLogs)

	_, err := svc.AssignReplacement(ctx, f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.carol.EmployeeID}, false)
	var ce *ConflictError
	if !errors.As(err, &ce) || !errors.Is(err, ErrReplacementConflicts) {
		t.Fatalf("expected ConflictError wrapping ErrReplacementConflicts, got %v", err)
	}
	if ce.Conflicts[0].Code != ConflictTimeOff {
		t.Errorf("expected time_off conflict, got %+v", ce.Conflicts)
	}
	if sh := f.db.shift("s-wed"); sh.Status != model.ShiftCalledOut || sh.EmployeeID != f.alice.EmployeeID {
		t.Fatalf("an unforced conflict must not change the shift, got %s on %s", sh.EmployeeID, sh.Status)
	}
	if len(f.db.changeLogs) != logsBefore {
		t.Fatal("an unforced conflict must not write change logs")
	}

	resp, err := svc.AssignReplacement(ctx, f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.carol.EmployeeID}, true)
	if err != nil {
		t.Fatalf("forced AssignReplacement: %v", err)
	}
	if resp.Status != string(model.ShiftCovered) || resp.EmployeeID != f.carol.EmployeeID {
		t.Errorf("expected carol covering, got %s on %s", resp.EmployeeID, resp.Status)
	}
	last := f.db.changeLogs[len(f.db.changeLogs)-1]
	if last.ChangeType != model.ChangeCover || last.Reason != "assigned with conflicts" {
		t.Errorf("expected a forced cover log, got %+v", last)
	}
}

func TestCalloutService_Assign_DoubleBookingAlwaysRefused(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)
	f.shiftOn("s-bob-wed", f.bob, "2026-03-04", "16:00", "20:00", 0)

	_, err := svc.AssignReplacement(context.Background(), f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, true)
	if !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected ErrDoubleBooking even with force, got %v", err)
	}
}

func TestCalloutService_Assign_Success(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)

	resp, err := svc.AssignReplacement(context.Background(), f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, false)
	if err != nil {
		t.Fatalf("AssignReplacement: %v", err)
	}
	if resp.Status != string(model.ShiftCovered) {
		t.Errorf("expected covered, got %s", resp.Status)
	}
	sh := f.db.shift("s-wed")
	if sh.CoveredByID == nil || *sh.CoveredByID != f.bob.EmployeeID {
		t.Errorf("expected covered_by bob, got %v", sh.CoveredByID)
	}
	if n := f.db.countNotifications(model.NotifyShiftAssigned); n != 1 {
		t.Errorf("expected the replacement notified, got %d", n)
	}
}

func TestCalloutService_Assign_ConcurrentSameReplacement(t *testing.T) {
	f := newFixture()
	svc := NewCalloutService(testConfig(), f.db.repository(), testEngine(), newMemLocker(), testNotifier(f.db), zap.NewNop())
	svc.(*calloutService).now = fixedClock()
	ctx := context.Background()
	f.shiftOn("s-alice-wed", f.alice, "2026-03-04", "09:00", "13:00", 0)
	f.shiftOn("s-bob-wed", f.bob, "2026-03-04", "14:00", "18:00", 0)
	for _, id := range []string{"s-alice-wed", "s-bob-wed"} {
		if _, err := svc.MarkCallout(ctx, f.manager, id, &dto.CalloutRequest{Reason: "sick"}); err != nil {
			t.Fatalf("MarkCallout %s: %v", id, err)
		}
	}

	ids := []string{"s-alice-wed", "s-bob-wed"}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.AssignReplacement(ctx, f.manager, id, &dto.AssignReplacementRequest{EmployeeID: f.carol.EmployeeID}, true)
		}(i, id)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrBusy), errors.Is(err, ErrDoubleBooking):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one cover to win, got %d", winners)
	}
	if n := f.db.activeOn(f.carol.EmployeeID, "2026-03-04"); n != 1 {
		t.Fatalf("carol must hold one Wednesday shift, got %d", n)
	}
}

func TestCalloutService_Assign_DayLockHeld(t *testing.T) {
	f := newFixture()
	locker := newMemLocker()
	svc := NewCalloutService(testConfig(), f.db.repository(), testEngine(), locker, testNotifier(f.db), zap.NewNop())
	svc.(*calloutService).now = fixedClock()
	calledOut(t, f, svc)

	release, err := locker.Lock(context.Background(), "employee:emp-bob:2026-03-04", time.Second)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	_, err = svc.AssignReplacement(context.Background(), f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, false)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while bob's day is locked, got %v", err)
	}
	release()
	if _, err := svc.AssignReplacement(context.Background(), f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, false); err != nil {
		t.Fatalf("AssignReplacement after release: %v", err)
	}
}

func TestCalloutService_Assign_OriginalRefused(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)

	_, err := svc.AssignReplacement(context.Background(), f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.alice.EmployeeID}, true)
	if !errors.Is(err, ErrReplacementIsOriginal) {
		t.Fatalf("expected ErrReplacementIsOriginal, got %v", err)
	}
}

// ── RevertCallout ──

func TestCalloutService_Revert(t *testing.T) {
	f, svc := setupCalloutService()
	ctx := context.Background()
	calledOut(t, f, svc)
	if _, err := svc.AssignReplacement(ctx, f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, false); err != nil {
		t.Fatalf("AssignReplacement: %v", err)
	}

	resp, err := svc.RevertCallout(ctx, f.manager, "s-wed")
	if err != nil {
		t.Fatalf("RevertCallout: %v", err)
	}
	if resp.Status != string(model.ShiftScheduled) || resp.EmployeeID != f.alice.EmployeeID {
		t.Fatalf("expected alice scheduled again, got %s on %s", resp.EmployeeID, resp.Status)
	}
	sh := f.db.shift("s-wed")
	if sh.OriginalEmployeeID != nil || sh.CoveredByID != nil || sh.CalloutTime != nil {
		t.Errorf("expected call-out fields cleared, got %+v", sh)
	}
}

func TestCalloutService_Revert_OriginalRebookedSameDay(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)
	// alice picked up a Wednesday evening shift after calling out of the morning
	f.shiftOn("s-alice-eve", f.alice, "2026-03-04", "16:00", "20:00", 0)

	_, err := svc.RevertCallout(context.Background(), f.manager, "s-wed")
	var ce *ConflictError
	if !errors.As(err, &ce) || !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("expected a double-booking ConflictError, got %v", err)
	}
	if len(ce.Conflicts) != 1 || ce.Conflicts[0].Code != ConflictAlreadyScheduled {
		t.Errorf("expected one already_scheduled conflict, got %+v", ce.Conflicts)
	}
	if sh := f.db.shift("s-wed"); sh.Status != model.ShiftCalledOut {
		t.Errorf("a refused revert must leave the call-out, got %s", sh.Status)
	}
	if n := f.db.activeOn(f.alice.EmployeeID, "2026-03-04"); n != 1 {
		t.Errorf("alice must hold one Wednesday shift, got %d", n)
	}
}

func TestCalloutService_Revert_OriginalNowOnTimeOff(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)
	f.db.timeOff["to-alice"] = &model.TimeOffRequest{TimeOffRequestID: "to-alice", EmployeeID: f.alice.EmployeeID,
		StartDate: mustDate("2026-03-04"), EndDate: mustDate("2026-03-05"), Status: model.TimeOffApproved}

	_, err := svc.RevertCallout(context.Background(), f.manager, "s-wed")
	var cv *ComplianceError
	if !errors.As(err, &cv) {
		t.Fatalf("expected a ComplianceError, got %v", err)
	}
	if sh := f.db.shift("s-wed"); sh.Status != model.ShiftCalledOut {
		t.Errorf("a refused revert must leave the call-out, got %s", sh.Status)
	}
}

func TestCalloutService_Revert_TooLate(t *testing.T) {
	f, svc := setupCalloutService()
	calledOut(t, f, svc)
	// one hour before the 09:00 start, inside the two hour cutoff
	svc.(*calloutService).now = func() time.Time { return time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC) }

	_, err := svc.RevertCallout(context.Background(), f.manager, "s-wed")
	if !errors.Is(err, ErrRevertTooLate) {
		t.Fatalf("expected ErrRevertTooLate, got %v", err)
	}
}

func TestCalloutService_Revert_ScheduledShift(t *testing.T) {
	f, svc := setupCalloutService()
	f.shiftOn("s-wed", f.alice, "2026-03-04", "09:00", "15:00", 0)

	_, err := svc.RevertCallout(context.Background(), f.manager, "s-wed")
	if !errors.Is(err, ErrShiftNotRevertable) {
		t.Fatalf("expected ErrShiftNotRevertable, got %v", err)
	}
}

// ── MarkNoShow ──

func TestCalloutService_MarkNoShow(t *testing.T) {
	f, svc := setupCalloutService()
	ctx := context.Background()
	f.shiftOn("s-wed", f.alice, "2026-03-04", "09:00", "15:00", 0)

	if _, err := svc.MarkNoShow(ctx, f.manager, "s-wed", &dto.NoShowRequest{}); !errors.Is(err, ErrShiftNotStarted) {
		t.Fatalf("expected ErrShiftNotStarted before 09:00, got %v", err)
	}

	svc.(*calloutService).now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	if _, err := svc.MarkNoShow(ctx, f.as(f.bob), "s-wed", &dto.NoShowRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for an employee, got %v", err)
	}
	resp, err := svc.MarkNoShow(ctx, f.manager, "s-wed", &dto.NoShowRequest{Reason: "did not arrive"})
	if err != nil {
		t.Fatalf("MarkNoShow: %v", err)
	}
	if resp.Status != string(model.ShiftNoShow) {
		t.Fatalf("expected no_show, got %s", resp.Status)
	}
	if n := f.db.activeOn(f.alice.EmployeeID, "2026-03-04"); n != 0 {
		t.Errorf("a no-show must not count as an active shift, got %d", n)
	}
	last := f.db.changeLogs[len(f.db.changeLogs)-1]
	if last.ChangeType != model.ChangeNoShow || last.Reason != "did not arrive" {
		t.Errorf("expected a no_show change log, got %+v", last)
	}

	if _, err := svc.MarkNoShow(ctx, f.manager, "s-wed", &dto.NoShowRequest{}); !errors.Is(err, ErrShiftNotScheduled) {
		t.Errorf("expected ErrShiftNotScheduled the second time, got %v", err)
	}
	if _, err := svc.RevertCallout(ctx, f.manager, "s-wed"); !errors.Is(err, ErrShiftNotRevertable) {
		t.Errorf("a no-show is final, got %v", err)
	}
}

// ── ListCallouts ──

func TestCalloutService_ListCallouts(t *testing.T) {
	f, svc := setupCalloutService()
	ctx := context.Background()
	calledOut(t, f, svc)

	open, err := svc.ListCallouts(ctx, f.manager, &dto.CalloutListRequest{StoreID: testStoreID, From: "2026-03-02", To: "2026-03-08"})
	if err != nil {
		t.Fatalf("ListCallouts: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open call-out, got %d", len(open))
	}

	if _, err := svc.AssignReplacement(ctx, f.manager, "s-wed", &dto.AssignReplacementRequest{EmployeeID: f.bob.EmployeeID}, false); err != nil {
		t.Fatalf("AssignReplacement: %v", err)
	}
	open, _ = svc.ListCallouts(ctx, f.manager, &dto.CalloutListRequest{StoreID: testStoreID, From: "2026-03-02", To: "2026-03-08"})
	if len(open) != 0 {
		t.Errorf("covered shifts are excluded by default, got %d", len(open))
	}
	all, _ := svc.ListCallouts(ctx, f.manager, &dto.CalloutListRequest{StoreID: testStoreID, From: "2026-03-02", To: "2026-03-08", IncludeCovered: true})
	if len(all) != 1 {
		t.Errorf("expected the covered shift with include_covered, got %d", len(all))
	}
}
