package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/compliance"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Shared fixture ──
//
// One store with three active pickers and a draft schedule for the week of
// 2026-03-02. The clock is pinned to a week before.

const (
	testStoreID    = "store-1"
	testScheduleID = "sched-1"
	testWeekStart  = "2026-03-02"
)

var testNow = time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db       *memDB
	store    *model.Store
	alice    *model.Employee
	bob      *model.Employee
	carol    *model.Employee
	schedule *model.Schedule
	manager  jwt.Identity
}

func newFixture() *fixture {
	db := newMemDB()
	f := &fixture{db: db}
	f.store = db.addStore(model.Store{StoreID: testStoreID, Name: "Downtown", Code: "DT"})
	f.alice = db.addEmployee(model.Employee{EmployeeID: "emp-alice", UserID: strPtr("user-alice"), StoreID: testStoreID, FirstName: "Alice", LastName: "Adams"})
	f.bob = db.addEmployee(model.Employee{EmployeeID: "emp-bob", UserID: strPtr("user-bob"), StoreID: testStoreID, FirstName: "Bob", LastName: "Baker"})
	f.carol = db.addEmployee(model.Employee{EmployeeID: "emp-carol", UserID: strPtr("user-carol"), StoreID: testStoreID, FirstName: "Carol", LastName: "Clark"})
	f.schedule = db.addSchedule(model.Schedule{ScheduleID: testScheduleID, StoreID: testStoreID, WeekStartDate: mustDate(testWeekStart)})
	f.manager = jwt.Identity{UserID: "user-mgr", Role: model.RoleManager, StoreID: testStoreID}
	return f
}

// as the identity an employee's access token carries.
func (f *fixture) as(e *model.Employee) jwt.Identity {
	id := jwt.Identity{Role: model.RoleEmployee, StoreID: e.StoreID, EmployeeID: e.EmployeeID}
	if e.UserID != nil {
		id.UserID = *e.UserID
	}
	return id
}

// shiftOn seeds a scheduled shift in the fixture schedule.
func (f *fixture) shiftOn(id string, e *model.Employee, date, start, end string, breakMinutes int) *model.Shift {
	return f.db.addShift(model.Shift{
		ShiftID:      id,
		ScheduleID:   f.schedule.ScheduleID,
		EmployeeID:   e.EmployeeID,
		Date:         mustDate(date),
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: breakMinutes,
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Optimizer: config.OptimizerConfig{
			DefaultTimeout:     5 * time.Second,
			PreviewTimeout:     5 * time.Second,
			MaxTimeout:         10 * time.Second,
			MinCoveragePercent: 90,
			UnderWeight:        10,
			OverWeight:         1,
			Restarts:           4,
			Seed:               1,
		},
		Scheduling: config.SchedulingConfig{RevertCutoff: 2 * time.Hour, LockTTL: 5 * time.Second},
	}
}

func testEngine() *compliance.Engine {
	return compliance.NewEngine(compliance.DefaultRules())
}

func testNotifier(db *memDB) NotificationService {
	return NewNotificationService(db.repository(), zap.NewNop())
}

func mustDate(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

// memLocker a process-local Locker that refuses a held name with ErrBusy.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]bool{}}
}

func (l *memLocker) Lock(_ context.Context, name string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, ErrBusy
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, nil
}
