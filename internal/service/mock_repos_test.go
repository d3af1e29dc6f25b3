package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	pkgerrors "github.com/malamapl09/Picker-Scheduler/pkg/errors"
)

// ── In-memory tables ──
//
// Every mock repository shares one memDB so preloads can follow relations.
// Reads return copies; the mutex makes the conditional updates atomic the
// way a single UPDATE ... WHERE status IN (...) is.

type memDB struct {
	mu  sync.Mutex
	seq int

	stores        map[string]*model.Store
	users         map[string]*model.User
	employees     map[string]*model.Employee
	availability  map[string]*model.Availability
	timeOff       map[string]*model.TimeOffRequest
	demand        map[string]*model.DemandRequirement
	schedules     map[string]*model.Schedule
	shifts        map[string]*model.Shift
	swaps         map[string]*model.ShiftSwap
	changeLogs    []model.ScheduleChangeLog
	notifications []model.Notification
	runs          map[string]*model.OptimizationRun

	// shiftUpdateHook runs before a shift Update; a non-nil error aborts it.
	shiftUpdateHook func(shift *model.Shift) error
}

func newMemDB() *memDB {
	return &memDB{
		stores:       make(map[string]*model.Store),
		users:        make(map[string]*model.User),
		employees:    make(map[string]*model.Employee),
		availability: make(map[string]*model.Availability),
		timeOff:      make(map[string]*model.TimeOffRequest),
		demand:       make(map[string]*model.DemandRequirement),
		schedules:    make(map[string]*model.Schedule),
		shifts:       make(map[string]*model.Shift),
		swaps:        make(map[string]*model.ShiftSwap),
		runs:         make(map[string]*model.OptimizationRun),
	}
}

// repository wires every mock onto db. The aggregate has no *gorm.DB, so
// Transaction runs fn directly.
func (db *memDB) repository() *repository.Repository {
	return &repository.Repository{
		Store:           &mockStoreRepo{db},
		User:            &mockUserRepo{db},
		Employee:        &mockEmployeeRepo{db},
		Availability:    &mockAvailabilityRepo{db},
		TimeOff:         &mockTimeOffRepo{db},
		Demand:          &mockDemandRepo{db},
		Schedule:        &mockScheduleRepo{db},
		Shift:           &mockShiftRepo{db},
		Swap:            &mockSwapRepo{db},
		ChangeLog:       &mockChangeLogRepo{db},
		Notification:    &mockNotificationRepo{db},
		OptimizationRun: &mockOptimizationRunRepo{db},
	}
}

// nextID must be called with mu held.
func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) stamp(m *model.BaseModel) {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// ── Seed helpers ──

func (db *memDB) addStore(s model.Store) *model.Store {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.OperatingStart == "" {
		s.OperatingStart, s.OperatingEnd = "08:00", "22:00"
	}
	db.stores[s.StoreID] = &s
	return &s
}

func (db *memDB) addEmployee(e model.Employee) *model.Employee {
	db.mu.Lock()
	defer db.mu.Unlock()
	if e.Status == "" {
		e.Status = model.EmployeeActive
	}
	db.employees[e.EmployeeID] = &e
	return &e
}

func (db *memDB) addSchedule(s model.Schedule) *model.Schedule {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Status == "" {
		s.Status = model.ScheduleDraft
	}
	db.schedules[s.ScheduleID] = &s
	return &s
}

func (db *memDB) addShift(s model.Shift) *model.Shift {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Status == "" {
		s.Status = model.ShiftScheduled
	}
	db.shifts[s.ShiftID] = &s
	return &s
}

func (db *memDB) shift(id string) model.Shift {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.shifts[id]
}

func (db *memDB) hasShift(id string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.shifts[id]
	return ok
}

// activeOn counts the employee's active shifts dated date.
func (db *memDB) activeOn(employeeID, date string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, s := range db.shifts {
		if s.EmployeeID == employeeID && s.Status.Active() && s.Date.Format(model.DateLayout) == date {
			n++
		}
	}
	return n
}

func (db *memDB) swap(id string) model.ShiftSwap {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.swaps[id]
}

func (db *memDB) countNotifications(t model.NotificationType) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, item := range db.notifications {
		if item.Type == t {
			n++
		}
	}
	return n
}

func (db *memDB) countShifts() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.shifts)
}

// ── Copies with preloads (mu held) ──

func (db *memDB) employeeCopy(id string) *model.Employee {
	e, ok := db.employees[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

func (db *memDB) shiftCopy(id string) *model.Shift {
	s, ok := db.shifts[id]
	if !ok {
		return nil
	}
	cp := *s
	cp.Employee = db.employeeCopy(s.EmployeeID)
	if sc, ok := db.schedules[s.ScheduleID]; ok {
		scp := *sc
		cp.Schedule = &scp
	}
	return &cp
}

func (db *memDB) swapCopy(id string) *model.ShiftSwap {
	s, ok := db.swaps[id]
	if !ok {
		return nil
	}
	cp := *s
	cp.RequesterShift = db.shiftCopy(s.RequesterShiftID)
	if s.RequestedShiftID != nil {
		cp.RequestedShift = db.shiftCopy(*s.RequestedShiftID)
	}
	return &cp
}

// ── Update value conversion ──

func asString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	default:
		return fmt.Sprint(v)
	}
}

func asStringPtr(v interface{}) *string {
	switch x := v.(type) {
	case string:
		return &x
	case *string:
		return x
	default:
		return nil
	}
}

func asTimePtr(v interface{}) *time.Time {
	switch x := v.(type) {
	case time.Time:
		return &x
	case *time.Time:
		return x
	default:
		return nil
	}
}

func statusIn[S ~string](s S, from []S) bool {
	for _, f := range from {
		if s == f {
			return true
		}
	}
	return false
}

// ── Mock StoreRepository ──

type mockStoreRepo struct{ db *memDB }

func (m *mockStoreRepo) Create(_ context.Context, store *model.Store) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if store.StoreID == "" {
		store.StoreID = m.db.nextID("store")
	}
	cp := *store
	m.db.stores[store.StoreID] = &cp
	return nil
}

func (m *mockStoreRepo) GetByID(_ context.Context, id string) (*model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if s, ok := m.db.stores[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStoreRepo) List(_ context.Context) ([]model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Store
	for _, s := range m.db.stores {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStoreRepo) GetByCode(_ context.Context, code string) (*model.Store, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, st := range m.db.stores {
		if st.Code == code {
			cp := *st
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStoreRepo) Update(_ context.Context, store *model.Store) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.stores[store.StoreID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *store
	m.db.stores[store.StoreID] = &cp
	return nil
}

func (m *mockStoreRepo) Delete(_ context.Context, id string, _ string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.stores, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct{ db *memDB }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if user.UserID == "" {
		user.UserID = m.db.nextID("user")
	}
	for _, u := range m.db.users {
		if u.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	m.db.stamp(&user.BaseModel)
	cp := *user
	m.db.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if u, ok := m.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.db.stamp(&user.BaseModel)
	cp := *user
	m.db.users[user.UserID] = &cp
	return nil
}

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct{ db *memDB }

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if emp.EmployeeID == "" {
		emp.EmployeeID = m.db.nextID("emp")
	}
	cp := *emp
	m.db.employees[emp.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if e := m.db.employeeCopy(id); e != nil {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByUserID(_ context.Context, userID string) (*model.Employee, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, e := range m.db.employees {
		if e.UserID != nil && *e.UserID == userID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) ListByStore(_ context.Context, storeID string, activeOnly bool) ([]model.Employee, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Employee
	for _, e := range m.db.employees {
		if e.StoreID != storeID || (activeOnly && e.Status != model.EmployeeActive) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *mockEmployeeRepo) ListByIDs(_ context.Context, ids []string) ([]model.Employee, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Employee
	for _, id := range ids {
		if e, ok := m.db.employees[id]; ok {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *mockEmployeeRepo) List(_ context.Context, f repository.EmployeeFilter) ([]model.Employee, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	kw := strings.ToLower(f.Keyword)
	var out []model.Employee
	for _, e := range m.db.employees {
		if f.StoreID != "" && e.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(e.FirstName), kw) && !strings.Contains(strings.ToLower(e.LastName), kw) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Offset, f.Limit)
	}
	return out, total, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.employees[emp.EmployeeID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *emp
	cp.Store = nil
	m.db.employees[emp.EmployeeID] = &cp
	return nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct{ db *memDB }

func availabilityKey(employeeID string, day int) string {
	return fmt.Sprintf("%s:%d", employeeID, day)
}

func (m *mockAvailabilityRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.Availability, error) {
	return m.ListByEmployees(ctx, []string{employeeID})
}

func (m *mockAvailabilityRepo) ListByEmployees(_ context.Context, employeeIDs []string) ([]model.Availability, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Availability
	for _, a := range m.db.availability {
		if containsString(employeeIDs, a.EmployeeID) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].DayOfWeek < out[j].DayOfWeek
	})
	return out, nil
}

func (m *mockAvailabilityRepo) Upsert(_ context.Context, rows []model.Availability) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, r := range rows {
		key := availabilityKey(r.EmployeeID, r.DayOfWeek)
		if existing, ok := m.db.availability[key]; ok {
			r.AvailabilityID = existing.AvailabilityID
		} else if r.AvailabilityID == "" {
			r.AvailabilityID = m.db.nextID("avail")
		}
		cp := r
		m.db.availability[key] = &cp
	}
	return nil
}

// ── Mock TimeOffRepository ──

type mockTimeOffRepo struct{ db *memDB }

func (m *mockTimeOffRepo) Create(_ context.Context, req *model.TimeOffRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if req.TimeOffRequestID == "" {
		req.TimeOffRequestID = m.db.nextID("timeoff")
	}
	if req.Version == 0 {
		req.Version = 1
	}
	m.db.stamp(&req.BaseModel)
	cp := *req
	cp.Employee = nil
	m.db.timeOff[req.TimeOffRequestID] = &cp
	return nil
}

func (m *mockTimeOffRepo) GetByID(_ context.Context, id string) (*model.TimeOffRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.timeOff[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	cp.Employee = m.db.employeeCopy(t.EmployeeID)
	return &cp, nil
}

func (m *mockTimeOffRepo) List(_ context.Context, f repository.TimeOffFilter) ([]model.TimeOffRequest, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.TimeOffRequest
	for _, t := range m.db.timeOff {
		emp := m.db.employeeCopy(t.EmployeeID)
		if f.StoreID != "" && (emp == nil || emp.StoreID != f.StoreID) {
			continue
		}
		if f.EmployeeID != "" && t.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		cp.Employee = emp
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].TimeOffRequestID < out[j].TimeOffRequestID
	})
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Offset, f.Limit)
	}
	return out, total, nil
}

func (m *mockTimeOffRepo) ListApprovedOverlapping(_ context.Context, employeeIDs []string, from, to time.Time) ([]model.TimeOffRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.TimeOffRequest
	for _, t := range m.db.timeOff {
		if !containsString(employeeIDs, t.EmployeeID) || t.Status != model.TimeOffApproved {
			continue
		}
		if t.StartDate.After(to) || t.EndDate.Before(from) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *mockTimeOffRepo) Transition(_ context.Context, id string, from []model.TimeOffStatus, updates map[string]interface{}) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	t, ok := m.db.timeOff[id]
	if !ok || !statusIn(t.Status, from) {
		return pkgerrors.ErrStaleState
	}
	for k, v := range updates {
		switch k {
		case "status":
			t.Status = model.TimeOffStatus(asString(v))
		case "reviewed_by":
			t.ReviewedBy = asStringPtr(v)
		case "reviewed_at":
			t.ReviewedAt = asTimePtr(v)
		case "updated_by":
			t.UpdatedBy = asStringPtr(v)
		}
	}
	t.Version++
	return nil
}

// ── Mock DemandRepository ──

type mockDemandRepo struct{ db *memDB }

func (m *mockDemandRepo) Upsert(_ context.Context, rows []model.DemandRequirement) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, r := range rows {
		key := fmt.Sprintf("%s:%s:%d", r.StoreID, r.Date.Format(model.DateLayout), r.Hour)
		if existing, ok := m.db.demand[key]; ok {
			r.DemandRequirementID = existing.DemandRequirementID
		} else {
			r.DemandRequirementID = m.db.nextID("demand")
		}
		cp := r
		m.db.demand[key] = &cp
	}
	return nil
}

func (m *mockDemandRepo) ListByStoreRange(_ context.Context, storeID string, from, to time.Time) ([]model.DemandRequirement, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.DemandRequirement
	for _, d := range m.db.demand {
		if d.StoreID == storeID && !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct{ db *memDB }

func (m *mockScheduleRepo) Create(_ context.Context, schedule *model.Schedule) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.schedules {
		if s.StoreID == schedule.StoreID && s.WeekStartDate.Equal(schedule.WeekStartDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = m.db.nextID("schedule")
	}
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	m.db.stamp(&schedule.BaseModel)
	cp := *schedule
	cp.Store, cp.Shifts = nil, nil
	m.db.schedules[schedule.ScheduleID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.Schedule, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.schedules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withStore(s), nil
}

func (m *mockScheduleRepo) GetByStoreWeek(_ context.Context, storeID string, weekStart time.Time) (*model.Schedule, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.schedules {
		if s.StoreID == storeID && model.DateOnly(s.WeekStartDate).Equal(model.DateOnly(weekStart)) {
			return m.withStore(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) withStore(s *model.Schedule) *model.Schedule {
	cp := *s
	if st, ok := m.db.stores[s.StoreID]; ok {
		stc := *st
		cp.Store = &stc
	}
	return &cp
}

func (m *mockScheduleRepo) List(_ context.Context, f repository.ScheduleFilter) ([]model.Schedule, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Schedule
	for _, s := range m.db.schedules {
		if f.StoreID != "" && s.StoreID != f.StoreID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.From != nil && s.WeekStartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && s.WeekStartDate.After(*f.To) {
			continue
		}
		out = append(out, *m.withStore(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStartDate.After(out[j].WeekStartDate) })
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Offset, f.Limit)
	}
	return out, total, nil
}

func (m *mockScheduleRepo) Transition(_ context.Context, id string, from []model.ScheduleStatus, updates map[string]interface{}) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.schedules[id]
	if !ok || !statusIn(s.Status, from) {
		return pkgerrors.ErrStaleState
	}
	for k, v := range updates {
		switch k {
		case "status":
			s.Status = model.ScheduleStatus(asString(v))
		case "published_at":
			s.PublishedAt = asTimePtr(v)
		case "published_by":
			s.PublishedBy = asStringPtr(v)
		case "updated_by":
			s.UpdatedBy = asStringPtr(v)
		}
	}
	s.Version++
	return nil
}

func (m *mockScheduleRepo) BumpVersion(_ context.Context, id string, expected int, updatedBy *string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.schedules[id]
	if !ok || s.Version != expected {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version = expected + 1
	s.UpdatedBy = updatedBy
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string, _ string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.schedules, id)
	for sid, sh := range m.db.shifts {
		if sh.ScheduleID == id {
			delete(m.db.shifts, sid)
		}
	}
	return nil
}

// ── Mock ScheduleChangeLogRepository ──

type mockChangeLogRepo struct{ db *memDB }

func (m *mockChangeLogRepo) Create(ctx context.Context, log *model.ScheduleChangeLog) error {
	return m.BatchCreate(ctx, []model.ScheduleChangeLog{*log})
}

func (m *mockChangeLogRepo) BatchCreate(_ context.Context, logs []model.ScheduleChangeLog) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, l := range logs {
		if l.ScheduleChangeLogID == "" {
			l.ScheduleChangeLogID = m.db.nextID("log")
		}
		m.db.changeLogs = append(m.db.changeLogs, l)
	}
	return nil
}

func (m *mockChangeLogRepo) ListBySchedule(_ context.Context, scheduleID string, offset, limit int) ([]model.ScheduleChangeLog, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ScheduleChangeLog
	for _, l := range m.db.changeLogs {
		if l.ScheduleID == scheduleID {
			out = append(out, l)
		}
	}
	total := int64(len(out))
	if limit > 0 {
		out = page(out, offset, limit)
	}
	return out, total, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct{ db *memDB }

func (m *mockShiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.insert(shift)
	return nil
}

func (m *mockShiftRepo) BatchCreate(_ context.Context, shifts []model.Shift) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i := range shifts {
		m.insert(&shifts[i])
	}
	return nil
}

func (m *mockShiftRepo) insert(shift *model.Shift) {
	if shift.ShiftID == "" {
		shift.ShiftID = m.db.nextID("shift")
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	if shift.Status == "" {
		shift.Status = model.ShiftScheduled
	}
	m.db.stamp(&shift.BaseModel)
	cp := *shift
	cp.Employee, cp.Schedule = nil, nil
	m.db.shifts[shift.ShiftID] = &cp
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if s := m.db.shiftCopy(id); s != nil {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Shift
	for id, s := range m.db.shifts {
		if s.ScheduleID == scheduleID {
			cp := *m.db.shiftCopy(id)
			cp.Schedule = nil
			out = append(out, cp)
		}
	}
	sortShifts(out)
	return out, nil
}

func (m *mockShiftRepo) ListActiveByEmployees(_ context.Context, employeeIDs []string, from, to time.Time) ([]model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Shift
	for _, s := range m.db.shifts {
		if !containsString(employeeIDs, s.EmployeeID) || !s.Status.Active() {
			continue
		}
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, *s)
	}
	sortShifts(out)
	return out, nil
}

func (m *mockShiftRepo) ListCallouts(_ context.Context, f repository.CalloutFilter) ([]model.Shift, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Shift
	for id, s := range m.db.shifts {
		if s.Status != model.ShiftCalledOut && !(f.IncludeCovered && s.Status == model.ShiftCovered) {
			continue
		}
		if s.Date.Before(f.From) || s.Date.After(f.To) {
			continue
		}
		if sc, ok := m.db.schedules[s.ScheduleID]; !ok || sc.StoreID != f.StoreID {
			continue
		}
		out = append(out, *m.db.shiftCopy(id))
	}
	sortShifts(out)
	return out, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.shiftUpdateHook != nil {
		if err := m.db.shiftUpdateHook(shift); err != nil {
			return err
		}
	}
	s, ok := m.db.shifts[shift.ShiftID]
	if !ok || s.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	s.EmployeeID = shift.EmployeeID
	s.Date = shift.Date
	s.StartTime = shift.StartTime
	s.EndTime = shift.EndTime
	s.BreakMinutes = shift.BreakMinutes
	s.UpdatedBy = shift.UpdatedBy
	s.Version++
	shift.Version = s.Version
	return nil
}

func (m *mockShiftRepo) Transition(_ context.Context, id string, from []model.ShiftStatus, updates map[string]interface{}) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.shifts[id]
	if !ok || !statusIn(s.Status, from) {
		return pkgerrors.ErrStaleState
	}
	for k, v := range updates {
		switch k {
		case "status":
			s.Status = model.ShiftStatus(asString(v))
		case "employee_id":
			s.EmployeeID = asString(v)
		case "original_employee_id":
			s.OriginalEmployeeID = asStringPtr(v)
		case "covered_by_id":
			s.CoveredByID = asStringPtr(v)
		case "callout_reason":
			s.CalloutReason = asString(v)
		case "callout_time":
			s.CalloutTime = asTimePtr(v)
		case "updated_by":
			s.UpdatedBy = asStringPtr(v)
		}
	}
	s.Version++
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string, _ string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.shifts, id)
	return nil
}

func sortShifts(out []model.Shift) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ShiftID < out[j].ShiftID
	})
}

// ── Mock SwapRepository ──

type mockSwapRepo struct{ db *memDB }

func (m *mockSwapRepo) Create(_ context.Context, swap *model.ShiftSwap) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if swap.ShiftSwapID == "" {
		swap.ShiftSwapID = m.db.nextID("swap")
	}
	if swap.Version == 0 {
		swap.Version = 1
	}
	m.db.stamp(&swap.BaseModel)
	cp := *swap
	cp.RequesterShift, cp.RequestedShift = nil, nil
	m.db.swaps[swap.ShiftSwapID] = &cp
	return nil
}

func (m *mockSwapRepo) GetByID(_ context.Context, id string) (*model.ShiftSwap, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if s := m.db.swapCopy(id); s != nil {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSwapRepo) List(_ context.Context, f repository.SwapFilter) ([]model.ShiftSwap, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ShiftSwap
	for id := range m.db.swaps {
		s := m.db.swapCopy(id)
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.StoreID != "" && (s.RequesterShift == nil || s.RequesterShift.Employee == nil || s.RequesterShift.Employee.StoreID != f.StoreID) {
			continue
		}
		if f.EmployeeID != "" {
			mine := s.RequesterShift != nil && s.RequesterShift.EmployeeID == f.EmployeeID
			mine = mine || (s.RequestedShift != nil && s.RequestedShift.EmployeeID == f.EmployeeID)
			if !mine {
				continue
			}
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShiftSwapID < out[j].ShiftSwapID })
	total := int64(len(out))
	if f.Limit > 0 {
		out = page(out, f.Offset, f.Limit)
	}
	return out, total, nil
}

func (m *mockSwapRepo) ListAvailable(_ context.Context, storeID, excludeEmployeeID string, since time.Time) ([]model.ShiftSwap, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.ShiftSwap
	for id, sw := range m.db.swaps {
		if sw.Status != model.SwapPending || sw.RequestedShiftID != nil {
			continue
		}
		s := m.db.swapCopy(id)
		rs := s.RequesterShift
		if rs == nil || rs.Employee == nil || rs.Employee.StoreID != storeID {
			continue
		}
		if rs.EmployeeID == excludeEmployeeID || rs.Date.Before(since) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShiftSwapID < out[j].ShiftSwapID })
	return out, nil
}

func (m *mockSwapRepo) CountOpenForShift(_ context.Context, shiftID string) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for _, s := range m.db.swaps {
		if !s.Status.Open() {
			continue
		}
		if s.RequesterShiftID == shiftID || (s.RequestedShiftID != nil && *s.RequestedShiftID == shiftID) {
			n++
		}
	}
	return n, nil
}

func (m *mockSwapRepo) Transition(_ context.Context, id string, from []model.SwapStatus, updates map[string]interface{}) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.swaps[id]
	if !ok || !statusIn(s.Status, from) {
		return pkgerrors.ErrStaleState
	}
	for k, v := range updates {
		switch k {
		case "status":
			s.Status = model.SwapStatus(asString(v))
		case "requested_shift_id":
			s.RequestedShiftID = asStringPtr(v)
		case "accepted_at":
			s.AcceptedAt = asTimePtr(v)
		case "reviewed_by":
			s.ReviewedBy = asStringPtr(v)
		case "reviewed_at":
			s.ReviewedAt = asTimePtr(v)
		case "deny_reason":
			s.DenyReason = asString(v)
		case "updated_by":
			s.UpdatedBy = asStringPtr(v)
		}
	}
	s.Version++
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ db *memDB }

func (m *mockNotificationRepo) BatchCreate(_ context.Context, items []model.Notification) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, n := range items {
		if n.NotificationID == "" {
			n.NotificationID = m.db.nextID("notification")
		}
		m.db.stamp(&n.BaseModel)
		m.db.notifications = append(m.db.notifications, n)
	}
	return nil
}

func (m *mockNotificationRepo) ListByEmployee(_ context.Context, employeeID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []model.Notification
	for i := len(m.db.notifications) - 1; i >= 0; i-- {
		n := m.db.notifications[i]
		if n.EmployeeID != employeeID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	total := int64(len(out))
	if limit > 0 {
		out = page(out, offset, limit)
	}
	return out, total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, employeeID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i := range m.db.notifications {
		n := &m.db.notifications[i]
		if n.NotificationID == id && n.EmployeeID == employeeID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock OptimizationRunRepository ──

type mockOptimizationRunRepo struct{ db *memDB }

func (m *mockOptimizationRunRepo) Create(_ context.Context, run *model.OptimizationRun) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if run.OptimizationRunID == "" {
		run.OptimizationRunID = m.db.nextID("run")
	}
	cp := *run
	m.db.runs[run.OptimizationRunID] = &cp
	return nil
}

func (m *mockOptimizationRunRepo) GetByID(_ context.Context, id string) (*model.OptimizationRun, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if r, ok := m.db.runs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOptimizationRunRepo) AttachSchedule(_ context.Context, id, scheduleID string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	r, ok := m.db.runs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.ScheduleID = &scheduleID
	return nil
}

func page[T any](in []T, offset, limit int) []T {
	if offset >= len(in) {
		return []T{}
	}
	end := offset + limit
	if end > len(in) {
		end = len(in)
	}
	return in[offset:end]
}
