package model

import "time"

// EmployeeStatus HR state of a picker.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
	EmployeeOnLeave  EmployeeStatus = "on_leave"
)

// Employee a picker working at one store.
type Employee struct {
	EmployeeID string         `gorm:"type:uuid;primaryKey"                        json:"employee_id"`
	UserID     *string        `gorm:"type:uuid;uniqueIndex"                       json:"user_id,omitempty"`
	StoreID    string         `gorm:"type:uuid;not null;index"                    json:"store_id"`
	FirstName  string         `gorm:"type:varchar(100);not null"                  json:"first_name"`
	LastName   string         `gorm:"type:varchar(100);not null"                  json:"last_name"`
	HireDate   time.Time      `gorm:"type:date;not null"                          json:"hire_date"`
	Status     EmployeeStatus `gorm:"type:varchar(20);not null;default:'active'"  json:"status"`
	SoftDeleteModel

	Store *Store `gorm:"foreignKey:StoreID;references:StoreID" json:"store,omitempty"`
}

// TableName maps to employees.
func (Employee) TableName() string { return "employees" }

// FullName first and last name joined.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
