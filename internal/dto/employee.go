package dto

// ── Employees ──

// CreateEmployeeRequest adds a picker. With Email set a login account is
// created too and its temporary password returned once.
type CreateEmployeeRequest struct {
	StoreID   string `json:"store_id"   binding:"required,uuid"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name"  binding:"required,max=100"`
	HireDate  string `json:"hire_date"  binding:"required,datetime=2006-01-02"`
	Status    string `json:"status"     binding:"omitempty,oneof=active inactive on_leave"`
	Email     string `json:"email"      binding:"omitempty,email"`
	Role      string `json:"role"       binding:"omitempty,oneof=employee manager"`
}

// UpdateEmployeeRequest partial update.
type UpdateEmployeeRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,max=100"`
	StoreID   *string `json:"store_id"   binding:"omitempty,uuid"`
	Status    *string `json:"status"     binding:"omitempty,oneof=active inactive on_leave"`
}

// EmployeeListRequest list query.
type EmployeeListRequest struct {
	StoreID string `form:"store_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=active inactive on_leave"`
	Keyword string `form:"keyword"  binding:"max=100"`
	PaginationRequest
}

// EmployeeResponse one picker.
type EmployeeResponse struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id,omitempty"`
	Email     string  `json:"email,omitempty"`
	StoreID   string  `json:"store_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	FullName  string  `json:"full_name"`
	HireDate  string  `json:"hire_date"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}

// CreateEmployeeResponse the new employee and, when an account was created,
// its temporary password.
type CreateEmployeeResponse struct {
	Employee     EmployeeResponse `json:"employee"`
	TempPassword string           `json:"temp_password,omitempty"`
}

// ResetPasswordResponse the new temporary password.
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportEmployeeError one rejected roster row.
type ImportEmployeeError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportEmployeeResponse roster import outcome.
type ImportEmployeeResponse struct {
	Total    int                   `json:"total"`
	Created  int                   `json:"created"`
	Failed   int                   `json:"failed"`
	Errors   []ImportEmployeeError `json:"errors,omitempty"`
	Accounts []ImportedAccount     `json:"accounts,omitempty"`
}

// ImportedAccount a login created by the roster import.
type ImportedAccount struct {
	Row          int    `json:"row"`
	EmployeeID   string `json:"employee_id"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}
