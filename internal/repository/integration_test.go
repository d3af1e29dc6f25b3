//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/database"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

// TestMain connects to TEST_DATABASE_DSN, or starts a disposable
// PostgreSQL container when it is unset, and applies the SQL migrations.
func TestMain(m *testing.M) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DATABASE_DSN")

	var container *tcpostgres.PostgresContainer
	if dsn == "" {
		var err error
		container, err = tcpostgres.RunContainer(ctx,
			testcontainers.WithImage("postgres:16-alpine"),
			tcpostgres.WithDatabase("picker_scheduler_test"),
			tcpostgres.WithUsername("picker"),
			tcpostgres.WithPassword("picker"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "start postgres container: %v\n", err)
			os.Exit(1)
		}
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "container dsn: %v\n", err)
			_ = container.Terminate(ctx)
			os.Exit(1)
		}
	}

	var err error
	testDB, err = database.Open(postgres.Open(dsn), "silent")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}
	if err := database.Migrate(testDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

// ═══════════════════════════════════════════════════════════
// Test: Conditional transitions under contention
// ═══════════════════════════════════════════════════════════

func TestIntegration_SwapAccept_SingleWinner(t *testing.T) {
	repo := repository.NewRepository(testDB)
	f := seed(t, repo)
	ctx := context.Background()
	shift := newShift(t, repo, f, f.alice, "2026-03-04")

	swap := &model.ShiftSwap{RequesterShiftID: shift.ShiftID, Status: model.SwapPending}
	if err := repo.Swap.Create(ctx, swap); err != nil {
		t.Fatalf("create swap: %v", err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		stale   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := time.Now()
			err := repo.Swap.Transition(ctx, swap.ShiftSwapID, []model.SwapStatus{model.SwapPending},
				map[string]interface{}{"status": model.SwapAccepted, "accepted_at": now})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, pkgerrors.ErrStaleState):
				stale++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 || stale != workers-1 {
		t.Fatalf("winners=%d stale=%d", winners, stale)
	}
}

func TestIntegration_ScheduleBumpVersion_ConflictDetected(t *testing.T) {
	repo := repository.NewRepository(testDB)
	f := seed(t, repo)
	ctx := context.Background()

	copy1, _ := repo.Schedule.GetByID(ctx, f.schedule.ScheduleID)
	copy2, _ := repo.Schedule.GetByID(ctx, f.schedule.ScheduleID)

	if err := repo.Schedule.BumpVersion(ctx, copy1.ScheduleID, copy1.Version, nil); err != nil {
		t.Fatalf("first bump should succeed: %v", err)
	}
	err := repo.Schedule.BumpVersion(ctx, copy2.ScheduleID, copy2.Version, nil)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock, got %v", err)
	}
}

func TestIntegration_ScheduleWeekIsUnique(t *testing.T) {
	repo := repository.NewRepository(testDB)
	f := seed(t, repo)
	ctx := context.Background()

	dup := &model.Schedule{StoreID: f.store.StoreID, WeekStartDate: f.schedule.WeekStartDate, Status: model.ScheduleDraft}
	if err := repo.Schedule.Create(ctx, dup); err == nil {
		t.Fatal("expected unique violation for a second schedule in the same week")
	}

	if err := repo.Schedule.Delete(ctx, f.schedule.ScheduleID, f.alice.EmployeeID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	again := &model.Schedule{StoreID: f.store.StoreID, WeekStartDate: f.schedule.WeekStartDate, Status: model.ScheduleDraft}
	if err := repo.Schedule.Create(ctx, again); err != nil {
		t.Fatalf("a soft-deleted week should be reusable: %v", err)
	}
}

func TestIntegration_ListCallouts(t *testing.T) {
	repo := repository.NewRepository(testDB)
	f := seed(t, repo)
	ctx := context.Background()
	out := newShift(t, repo, f, f.alice, "2026-03-05")
	newShift(t, repo, f, f.bob, "2026-03-05")

	err := repo.Shift.Transition(ctx, out.ShiftID, []model.ShiftStatus{model.ShiftScheduled}, map[string]interface{}{
		"status":               model.ShiftCalledOut,
		"callout_reason":       "sick",
		"callout_time":         time.Now(),
		"original_employee_id": f.alice.EmployeeID,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	got, err := repo.Shift.ListCallouts(ctx, repository.CalloutFilter{
		StoreID: f.store.StoreID, From: day("2026-03-02"), To: day("2026-03-08"),
	})
	if err != nil {
		t.Fatalf("ListCallouts: %v", err)
	}
	if len(got) != 1 || got[0].ShiftID != out.ShiftID {
		t.Fatalf("expected the called-out shift only, got %+v", got)
	}
}

func TestIntegration_TransactionRollsBackChangeLog(t *testing.T) {
	repo := repository.NewRepository(testDB)
	f := seed(t, repo)
	ctx := context.Background()
	s := newShift(t, repo, f, f.alice, "2026-03-06")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Shift.Transition(ctx, s.ShiftID, []model.ShiftStatus{model.ShiftScheduled},
			map[string]interface{}{"status": model.ShiftCalledOut}); err != nil {
			return err
		}
		if err := tx.ChangeLog.Create(ctx, &model.ScheduleChangeLog{
			ScheduleID:         f.schedule.ScheduleID,
			ShiftID:            &s.ShiftID,
			ChangeType:         model.ChangeCallout,
			OriginalEmployeeID: &f.alice.EmployeeID,
			OperatorID:         &f.alice.EmployeeID,
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected the transaction to fail")
	}

	got, _ := repo.Shift.GetByID(ctx, s.ShiftID)
	if got.Status != model.ShiftScheduled {
		t.Errorf("status should be rolled back, got %s", got.Status)
	}
	_, total, _ := repo.ChangeLog.ListBySchedule(ctx, f.schedule.ScheduleID, 0, 10)
	if total != 0 {
		t.Errorf("change log should be rolled back, got %d", total)
	}
}
