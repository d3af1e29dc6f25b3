package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/model"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

var testAdmin = jwt.Identity{UserID: "user-admin", Role: model.RoleAdmin}

func setupEmployeeService() (*fixture, EmployeeService) {
	f := newFixture()
	f.db.addStore(model.Store{StoreID: "store-2", Name: "Uptown", Code: "UP"})
	svc := NewEmployeeService(f.db.repository(), zap.NewNop())
	svc.(*employeeService).now = fixedClock()
	return f, svc
}

// ── Create ──

func TestEmployeeService_Create_WithAccount(t *testing.T) {
	f, svc := setupEmployeeService()

	resp, err := svc.Create(context.Background(), f.manager, &dto.CreateEmployeeRequest{
		StoreID:   testStoreID,
		FirstName: " Dana ",
		LastName:  "Diaz",
		HireDate:  "2026-01-05",
		Email:     "Dana@Example.com",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Employee.FullName != "Dana Diaz" || resp.Employee.Status != string(model.EmployeeActive) {
		t.Errorf("unexpected employee %+v", resp.Employee)
	}
	if resp.Employee.Email != "dana@example.com" || resp.Employee.UserID == nil {
		t.Fatalf("expected a linked account, got %+v", resp.Employee)
	}
	if len(resp.TempPassword) != 10 {
		t.Errorf("expected a 10 character temp password, got %q", resp.TempPassword)
	}

	user := f.db.users[*resp.Employee.UserID]
	if user.Role != model.RoleEmployee || user.StoreID == nil || *user.StoreID != testStoreID {
		t.Errorf("unexpected account %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(resp.TempPassword)) != nil {
		t.Error("temp password does not match the stored hash")
	}
}

func TestEmployeeService_Create_Rules(t *testing.T) {
	f, svc := setupEmployeeService()
	ctx := context.Background()
	f.db.users["user-alice"] = &model.User{UserID: "user-alice", Email: "alice@example.com", Role: model.RoleEmployee}

	base := func() *dto.CreateEmployeeRequest {
		return &dto.CreateEmployeeRequest{StoreID: testStoreID, FirstName: "Eli", LastName: "Ense", HireDate: "2026-01-05"}
	}
	tests := []struct {
		name   string
		caller jwt.Identity
		mutate func(*dto.CreateEmployeeRequest)
		want   error
	}{
		{"employee caller", f.as(f.alice), func(*dto.CreateEmployeeRequest) {}, ErrForbidden},
		{"other store", f.manager, func(r *dto.CreateEmployeeRequest) { r.StoreID = "store-2" }, ErrForbidden},
		{"manager creates manager", f.manager, func(r *dto.CreateEmployeeRequest) { r.Email = "m@example.com"; r.Role = model.RoleManager }, ErrForbidden},
		{"taken email", f.manager, func(r *dto.CreateEmployeeRequest) { r.Email = "ALICE@example.com" }, ErrEmailExists},
		{"unknown store", testAdmin, func(r *dto.CreateEmployeeRequest) { r.StoreID = "store-9" }, ErrStoreNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			if _, err := svc.Create(ctx, tt.caller, req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(f.db.employees) != 3 {
		t.Errorf("expected no new employees, got %d", len(f.db.employees))
	}
}

// ── Read / Update ──

func TestEmployeeService_List(t *testing.T) {
	f, svc := setupEmployeeService()
	ctx := context.Background()

	if _, _, err := svc.List(ctx, f.as(f.alice), &dto.EmployeeListRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	all, total, err := svc.List(ctx, f.manager, &dto.EmployeeListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || all[0].LastName != "Adams" {
		t.Errorf("expected 3 employees sorted by last name, got %+v", all)
	}
	found, total, _ := svc.List(ctx, f.manager, &dto.EmployeeListRequest{Keyword: "BAK"})
	if total != 1 || found[0].ID != f.bob.EmployeeID {
		t.Errorf("expected bob for keyword, got %+v", found)
	}
	if _, _, err := svc.List(ctx, f.manager, &dto.EmployeeListRequest{StoreID: "store-2"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another store, got %v", err)
	}
}

func TestEmployeeService_Get_Self(t *testing.T) {
	f, svc := setupEmployeeService()
	ctx := context.Background()

	if _, err := svc.Get(ctx, f.as(f.alice), f.alice.EmployeeID); err != nil {
		t.Errorf("own record: %v", err)
	}
	if _, err := svc.Get(ctx, f.as(f.alice), f.bob.EmployeeID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestEmployeeService_Update_Transfer(t *testing.T) {
	f, svc := setupEmployeeService()
	ctx := context.Background()
	store := testStoreID
	f.db.users["user-alice"] = &model.User{UserID: "user-alice", Email: "alice@example.com", Role: model.RoleEmployee, StoreID: &store}
	dest := "store-2"

	if _, err := svc.Update(ctx, f.manager, f.alice.EmployeeID, &dto.UpdateEmployeeRequest{StoreID: &dest}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a transfer out of reach, got %v", err)
	}

	status := string(model.EmployeeOnLeave)
	resp, err := svc.Update(ctx, testAdmin, f.alice.EmployeeID, &dto.UpdateEmployeeRequest{StoreID: &dest, Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.StoreID != dest || resp.Status != status {
		t.Errorf("unexpected response %+v", resp)
	}
	if got := f.db.users["user-alice"].StoreID; got == nil || *got != dest {
		t.Errorf("expected the account to follow the transfer, got %v", got)
	}
}

func TestEmployeeService_ResetPassword(t *testing.T) {
	f, svc := setupEmployeeService()
	ctx := context.Background()

	if _, err := svc.ResetPassword(ctx, f.manager, f.alice.EmployeeID); !errors.Is(err, ErrNoLoginAccount) {
		t.Fatalf("expected ErrNoLoginAccount, got %v", err)
	}
	f.db.users["user-alice"] = &model.User{UserID: "user-alice", Email: "alice@example.com", PasswordHash: "old", Role: model.RoleEmployee}

	resp, err := svc.ResetPassword(ctx, f.manager, f.alice.EmployeeID)
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	hash := f.db.users["user-alice"].PasswordHash
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(resp.TempPassword)) != nil {
		t.Error("stored hash does not match the new password")
	}
}

// ── Roster import ──

func rosterWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	x := excelize.NewFile()
	defer x.Close()
	for i, r := range rows {
		if err := x.SetSheetRow("Sheet1", cell("A", i+1), &r); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}
	buf, err := x.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestEmployeeService_ParseRosterFile(t *testing.T) {
	_, svc := setupEmployeeService()

	rows, err := svc.ParseRosterFile(rosterWorkbook(t, [][]interface{}{
		{"Last Name", "First Name", "Email", "Store Code"},
		{"Diaz", "Dana", "dana@example.com", "DT"},
		{},
		{"Fox", "Finn"},
	}))
	if err != nil {
		t.Fatalf("ParseRosterFile: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank rows skipped, got %d rows", len(rows))
	}
	if rows[0].FirstName != "Dana" || rows[0].StoreCode != "DT" || rows[0].Row != 2 {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].Row != 4 || rows[1].Email != "" {
		t.Errorf("unexpected second row %+v", rows[1])
	}
}

func TestEmployeeService_ParseRosterFile_Errors(t *testing.T) {
	_, svc := setupEmployeeService()

	tests := []struct {
		name string
		in   func() *bytes.Reader
		want error
	}{
		{"not xlsx", func() *bytes.Reader { return bytes.NewReader([]byte("first_name,last_name")) }, ErrRosterUnreadable},
		{"header only", func() *bytes.Reader {
			return rosterWorkbook(t, [][]interface{}{{"first_name", "last_name"}})
		}, ErrRosterNoData},
		{"missing column", func() *bytes.Reader {
			return rosterWorkbook(t, [][]interface{}{{"first_name", "email"}, {"Dana", "d@example.com"}})
		}, ErrRosterBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseRosterFile(tt.in()); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEmployeeService_ImportRoster(t *testing.T) {
	f, svc := setupEmployeeService()
	f.db.users["user-alice"] = &model.User{UserID: "user-alice", Email: "alice@example.com", Role: model.RoleEmployee}

	rows := []RosterRow{
		{Row: 2, FirstName: "Dana", LastName: "Diaz", Email: "dana@example.com", HireDate: "2026-01-05"},
		{Row: 3, FirstName: "Eli"},
		{Row: 4, FirstName: "Finn", LastName: "Fox", Email: "FINN@example.com", StoreCode: "dt", HireDate: "1/15/2026", Status: "inactive"},
		{Row: 5, FirstName: "Gus", LastName: "Gray", Email: "dana@example.com"},
		{Row: 6, FirstName: "Hal", LastName: "Hill", StoreCode: "XX"},
		{Row: 7, FirstName: "Ivy", LastName: "Ives", StoreCode: "UP"},
		{Row: 8, FirstName: "Jo", LastName: "Jones", Email: "alice@example.com"},
		{Row: 9, FirstName: "Kim", LastName: "King", HireDate: "someday"},
		{Row: 10, FirstName: "Lee", LastName: "Lane"},
	}
	resp, err := svc.ImportRoster(context.Background(), f.manager, "", rows)
	if err != nil {
		t.Fatalf("ImportRoster: %v", err)
	}
	if resp.Total != 9 || resp.Created != 3 || resp.Failed != 6 {
		t.Fatalf("expected 9/3/6, got %d/%d/%d: %+v", resp.Total, resp.Created, resp.Failed, resp.Errors)
	}

	wantRows := []int{3, 5, 6, 7, 8, 9}
	for i, e := range resp.Errors {
		if e.Row != wantRows[i] {
			t.Errorf("error %d: expected row %d, got %d (%s)", i, wantRows[i], e.Row, e.Reason)
		}
	}
	if !strings.Contains(resp.Errors[1].Reason, "repeats row 2") {
		t.Errorf("unexpected duplicate reason %q", resp.Errors[1].Reason)
	}
	if len(resp.Accounts) != 2 || resp.Accounts[1].Email != "finn@example.com" {
		t.Errorf("expected accounts for dana and finn, got %+v", resp.Accounts)
	}

	finn := f.db.employees[resp.Accounts[1].EmployeeID]
	if finn.Status != model.EmployeeInactive || finn.HireDate.Format(model.DateLayout) != "2026-01-15" || finn.StoreID != testStoreID {
		t.Errorf("unexpected imported employee %+v", finn)
	}
	if len(f.db.employees) != 6 {
		t.Errorf("expected 6 employees after import, got %d", len(f.db.employees))
	}
}

func TestEmployeeService_ImportRoster_EmployeeForbidden(t *testing.T) {
	f, svc := setupEmployeeService()

	_, err := svc.ImportRoster(context.Background(), f.as(f.alice), "", []RosterRow{{Row: 2, FirstName: "A", LastName: "B"}})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
