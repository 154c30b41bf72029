// Package directory implements the employee directory: departments,
// positions, and the employees that reference them.
package directory

import "time"

// Employee is the writable shape of an employee row. DepartmentID and
// PositionID are pointers because both references are optional.
type Employee struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email,omitempty"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	PositionID   *int64     `json:"position_id,omitempty"`
	HiredAt      *time.Time `json:"hired_at,omitempty"`
}

// EmployeeView is the flat read shape: the employee row joined with its
// department name and position title. Missing references read as "".
type EmployeeView struct {
	Employee
	DepartmentName string `json:"department_name"`
	PositionTitle  string `json:"position_title"`
}

// Department is an organizational unit.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Position is a job title.
type Position struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
