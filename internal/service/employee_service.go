package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

// ── Employee errors ──

var (
	ErrEmailExists    = errors.New("email already registered")
	ErrNoLoginAccount = errors.New("employee has no login account")
)

// EmployeeService picker records and their optional login accounts.
//
// Managers administer the employees of their own store; admins without a
// store administer all of them. Employees may read their own record.
type EmployeeService interface {
	Create(ctx context.Context, caller jwt.Identity, req *dto.CreateEmployeeRequest) (*dto.CreateEmployeeResponse, error)
	Get(ctx context.Context, caller jwt.Identity, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, caller jwt.Identity, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error)
	Update(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	ResetPassword(ctx context.Context, caller jwt.Identity, id string) (*dto.ResetPasswordResponse, error)
	// ParseRosterFile reads the first sheet of an xlsx roster.
	ParseRosterFile(reader io.Reader) ([]RosterRow, error)
	// ImportRoster creates every valid row in one transaction. Rows without a
	// store code land in defaultStoreID.
	ImportRoster(ctx context.Context, caller jwt.Identity, defaultStoreID string, rows []RosterRow) (*dto.ImportEmployeeResponse, error)
}

// RosterRow one parsed roster line.
type RosterRow struct {
	Row       int
	FirstName string
	LastName  string
	Email     string
	StoreCode string
	HireDate  string
	Status    string
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewEmployeeService creates an EmployeeService.
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, caller jwt.Identity, req *dto.CreateEmployeeRequest) (*dto.CreateEmployeeResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if err := authorizeStore(caller, req.StoreID); err != nil {
		return nil, err
	}
	if req.Role == model.RoleManager && caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if _, err := loadStore(ctx, s.repo, s.logger, req.StoreID); err != nil {
		return nil, err
	}
	hired, err := parseDate(req.HireDate)
	if err != nil {
		return nil, err
	}

	emp := &model.Employee{
		StoreID:   req.StoreID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		HireDate:  hired,
		Status:    model.EmployeeStatus(defaultString(req.Status, string(model.EmployeeActive))),
	}
	emp.CreatedBy = actor(caller)
	emp.UpdatedBy = actor(caller)

	var user *model.User
	var tempPassword string
	if req.Email != "" {
		email := normalizeEmail(req.Email)
		if err := s.checkEmail(ctx, email); err != nil {
			return nil, err
		}
		user, tempPassword, err = s.newAccount(email, defaultString(req.Role, model.RoleEmployee), req.StoreID)
		if err != nil {
			return nil, err
		}
		user.CreatedBy = actor(caller)
		user.UpdatedBy = actor(caller)
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if user != nil {
			if err := tx.User.Create(ctx, user); err != nil {
				return err
			}
			emp.UserID = &user.UserID
		}
		return tx.Employee.Create(ctx, emp)
	})
	if err != nil {
		s.logger.Error("create employee failed", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("employee created",
		zap.String("employee_id", emp.EmployeeID),
		zap.String("store_id", emp.StoreID),
		zap.Bool("with_account", user != nil))
	return &dto.CreateEmployeeResponse{
		Employee:     toEmployeeResponse(emp, user),
		TempPassword: tempPassword,
	}, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *employeeService) Get(ctx context.Context, caller jwt.Identity, id string) (*dto.EmployeeResponse, error) {
	emp, err := loadEmployee(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeEmployee(caller, emp); err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp, s.account(ctx, emp))
	return &resp, nil
}

func (s *employeeService) List(ctx context.Context, caller jwt.Identity, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, int64, error) {
	if !caller.IsManager() {
		return nil, 0, ErrForbidden
	}
	storeID := req.StoreID
	if storeID == "" {
		storeID = caller.StoreID
	}
	if storeID != "" {
		if err := authorizeStore(caller, storeID); err != nil {
			return nil, 0, err
		}
	}

	emps, total, err := s.repo.Employee.List(ctx, repository.EmployeeFilter{
		StoreID: storeID,
		Status:  model.EmployeeStatus(req.Status),
		Keyword: strings.TrimSpace(req.Keyword),
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list employees failed", zap.String("store_id", storeID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EmployeeResponse, 0, len(emps))
	for i := range emps {
		result = append(result, toEmployeeResponse(&emps[i], nil))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, caller jwt.Identity, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStore(caller, emp.StoreID); err != nil {
		return nil, err
	}

	moved := false
	if req.StoreID != nil && *req.StoreID != emp.StoreID {
		// a transfer needs authority over the destination too
		if err := authorizeStore(caller, *req.StoreID); err != nil {
			return nil, err
		}
		if _, err := loadStore(ctx, s.repo, s.logger, *req.StoreID); err != nil {
			return nil, err
		}
		emp.StoreID = *req.StoreID
		moved = true
	}
	if req.FirstName != nil {
		emp.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		emp.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Status != nil {
		emp.Status = model.EmployeeStatus(*req.Status)
	}
	emp.UpdatedBy = actor(caller)

	user := s.account(ctx, emp)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Employee.Update(ctx, emp); err != nil {
			return err
		}
		if moved && user != nil {
			user.StoreID = &emp.StoreID
			user.UpdatedBy = actor(caller)
			return tx.User.Update(ctx, user)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("update employee failed", zap.String("employee_id", id), zap.Error(err))
		return nil, err
	}

	resp := toEmployeeResponse(emp, user)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *employeeService) ResetPassword(ctx context.Context, caller jwt.Identity, id string) (*dto.ResetPasswordResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	emp, err := loadEmployee(ctx, s.repo, s.logger, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStore(caller, emp.StoreID); err != nil {
		return nil, err
	}
	user := s.account(ctx, emp)
	if user == nil {
		return nil, ErrNoLoginAccount
	}
	if user.Role == model.RoleAdmin && caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.UpdatedBy = actor(caller)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("reset password failed", zap.String("employee_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("password reset", zap.String("employee_id", id), zap.String("user_id", user.UserID))
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── Roster import ──────────────────────

const maxRosterRows = 1000

var (
	ErrRosterNoData      = errors.New("roster has no data rows (first row is the header)")
	ErrRosterTooManyRows = fmt.Errorf("roster exceeds %d rows", maxRosterRows)
	ErrRosterBadHeader   = errors.New("roster header needs first_name and last_name columns")
	ErrRosterUnreadable  = errors.New("roster is not a readable xlsx file")
)

var rosterDateLayouts = []string{model.DateLayout, "1/2/2006", "1/2/06", "01-02-06"}

func (s *employeeService) ParseRosterFile(reader io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterUnreadable, err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterUnreadable, err)
	}
	if len(sheetRows) < 2 {
		return nil, ErrRosterNoData
	}

	col := parseRosterHeader(sheetRows[0])
	if col["first_name"] < 0 || col["last_name"] < 0 {
		return nil, ErrRosterBadHeader
	}
	get := func(row []string, key string) string {
		if i := col[key]; i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var rows []RosterRow
	for i := 1; i < len(sheetRows); i++ {
		r := sheetRows[i]
		item := RosterRow{
			Row:       i + 1,
			FirstName: get(r, "first_name"),
			LastName:  get(r, "last_name"),
			Email:     get(r, "email"),
			StoreCode: get(r, "store_code"),
			HireDate:  get(r, "hire_date"),
			Status:    get(r, "status"),
		}
		if item == (RosterRow{Row: item.Row}) {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrRosterNoData
	}
	if len(rows) > maxRosterRows {
		return nil, ErrRosterTooManyRows
	}
	return rows, nil
}

// parseRosterHeader column name to index, -1 when absent.
func parseRosterHeader(header []string) map[string]int {
	idx := map[string]int{
		"first_name": -1,
		"last_name":  -1,
		"email":      -1,
		"store_code": -1,
		"hire_date":  -1,
		"status":     -1,
	}
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, ok := idx[key]; ok && idx[key] < 0 {
			idx[key] = i
		}
	}
	return idx
}

func (s *employeeService) ImportRoster(ctx context.Context, caller jwt.Identity, defaultStoreID string, rows []RosterRow) (*dto.ImportEmployeeResponse, error) {
	if !caller.IsManager() {
		return nil, ErrForbidden
	}
	if defaultStoreID == "" {
		defaultStoreID = caller.StoreID
	}
	resp := &dto.ImportEmployeeResponse{Total: len(rows)}
	reject := func(row int, format string, args ...interface{}) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportEmployeeError{Row: row, Reason: fmt.Sprintf(format, args...)})
	}

	stores, err := s.repo.Store.List(ctx)
	if err != nil {
		s.logger.Error("list stores failed", zap.Error(err))
		return nil, err
	}
	byCode := make(map[string]*model.Store, len(stores))
	byID := make(map[string]*model.Store, len(stores))
	for i := range stores {
		byCode[strings.ToLower(stores[i].Code)] = &stores[i]
		byID[stores[i].StoreID] = &stores[i]
	}

	// Phase one validates without writing.
	type validRow struct {
		row          RosterRow
		emp          *model.Employee
		user         *model.User
		tempPassword string
	}
	var valid []validRow
	seenEmail := make(map[string]int)
	today := model.DateOnly(s.now())

	for _, row := range rows {
		if row.FirstName == "" || row.LastName == "" {
			reject(row.Row, "first_name and last_name are required")
			continue
		}

		var store *model.Store
		if row.StoreCode != "" {
			store = byCode[strings.ToLower(row.StoreCode)]
			if store == nil {
				reject(row.Row, "unknown store code %s", row.StoreCode)
				continue
			}
		} else {
			store = byID[defaultStoreID]
			if store == nil {
				reject(row.Row, "no store specified")
				continue
			}
		}
		if authorizeStore(caller, store.StoreID) != nil {
			reject(row.Row, "not permitted to add employees to store %s", store.Code)
			continue
		}

		hired := today
		if row.HireDate != "" {
			d, ok := parseRosterDate(row.HireDate)
			if !ok {
				reject(row.Row, "invalid hire_date %s", row.HireDate)
				continue
			}
			hired = d
		}

		emp := &model.Employee{
			StoreID:   store.StoreID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			HireDate:  hired,
			Status:    rosterStatus(row.Status),
		}
		emp.CreatedBy = actor(caller)
		emp.UpdatedBy = actor(caller)
		vr := validRow{row: row, emp: emp}

		if row.Email != "" {
			email := normalizeEmail(row.Email)
			if prev, dup := seenEmail[email]; dup {
				reject(row.Row, "email %s repeats row %d", email, prev)
				continue
			}
			if err := s.checkEmail(ctx, email); err != nil {
				if errors.Is(err, ErrEmailExists) {
					reject(row.Row, "email %s already registered", email)
					continue
				}
				return nil, err
			}
			seenEmail[email] = row.Row

			user, pwd, err := s.newAccount(email, model.RoleEmployee, store.StoreID)
			if err != nil {
				return nil, err
			}
			user.CreatedBy = actor(caller)
			user.UpdatedBy = actor(caller)
			vr.user, vr.tempPassword = user, pwd
		}
		valid = append(valid, vr)
	}

	// Phase two writes every valid row or none.
	if len(valid) > 0 {
		err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for _, vr := range valid {
				if vr.user != nil {
					if err := tx.User.Create(ctx, vr.user); err != nil {
						return fmt.Errorf("row %d: %w", vr.row.Row, err)
					}
					vr.emp.UserID = &vr.user.UserID
				}
				if err := tx.Employee.Create(ctx, vr.emp); err != nil {
					return fmt.Errorf("row %d: %w", vr.row.Row, err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("roster import rolled back", zap.Error(err))
			return nil, err
		}
	}

	for _, vr := range valid {
		resp.Created++
		if vr.user != nil {
			resp.Accounts = append(resp.Accounts, dto.ImportedAccount{
				Row:          vr.row.Row,
				EmployeeID:   vr.emp.EmployeeID,
				Email:        vr.user.Email,
				TempPassword: vr.tempPassword,
			})
		}
	}
	s.logger.Info("roster imported",
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

func parseRosterDate(s string) (time.Time, bool) {
	for _, layout := range rosterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

func rosterStatus(s string) model.EmployeeStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inactive", "disabled":
		return model.EmployeeInactive
	case "leave", "on_leave", "on leave":
		return model.EmployeeOnLeave
	default:
		return model.EmployeeActive
	}
}

// ── Internal ──

func (s *employeeService) checkEmail(ctx context.Context, email string) error {
	_, err := s.repo.User.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("check email failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *employeeService) newAccount(email, role, storeID string) (*model.User, string, error) {
	tempPassword, err := generateTempPassword(10)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, "", err
	}
	store := storeID
	return &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		StoreID:      &store,
	}, tempPassword, nil
}

// account the employee's login, nil when there is none or it cannot be read.
func (s *employeeService) account(ctx context.Context, emp *model.Employee) *model.User {
	if emp.UserID == nil {
		return nil
	}
	user, err := s.repo.User.GetByID(ctx, *emp.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("load login account failed", zap.String("employee_id", emp.EmployeeID), zap.Error(err))
		}
		return nil
	}
	return user
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toEmployeeResponse(emp *model.Employee, user *model.User) dto.EmployeeResponse {
	resp := dto.EmployeeResponse{
		ID:        emp.EmployeeID,
		UserID:    emp.UserID,
		StoreID:   emp.StoreID,
		FirstName: emp.FirstName,
		LastName:  emp.LastName,
		FullName:  emp.FullName(),
		HireDate:  emp.HireDate.Format(model.DateLayout),
		Status:    string(emp.Status),
		CreatedAt: formatTimestamp(emp.CreatedAt),
	}
	if user != nil {
		resp.Email = user.Email
	}
	return resp
}

// generateTempPassword a random password with at least one letter and one digit.
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}
	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
