package model

import "time"

// Role names the kind of principal behind a session.  The backend returns
// these values in lower case.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleManager:
		return true
	}
	return false
}

// IsStaff is true for employees and managers; both may use the back office.
func (r Role) IsStaff() bool { return r == RoleEmployee || r == RoleManager }

// IsManager is true only for managers (admin screens).
func (r Role) IsManager() bool { return r == RoleManager }

// Session is the authenticated principal held by the BFF on behalf of a
// browser.  It is created on login or registration, persisted in the
// `sessions` table and destroyed on logout or on a backend 401.
//
// Fields:
//  ID          – random session identifier, also the `sid` JWT claim.
//  PrincipalID – customer or employee id in the backend.
//  DisplayName – name shown in page headers.
//  Role        – customer, employee or manager.
//  AuthToken   – bearer token issued by the backend; never sent to the browser.
//  ExpiresAt   – when the session stops being accepted.
type Session struct {
	ID          string    `json:"id"`
	PrincipalID int64     `json:"principalId"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	AuthToken   string    `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IsAuthenticated is false for a nil session so callers can pass the result
// of an optional lookup straight through.
func (s *Session) IsAuthenticated() bool { return s != nil && s.PrincipalID != 0 }

func (s *Session) IsCustomer() bool { return s.IsAuthenticated() && s.Role == RoleCustomer }
func (s *Session) IsStaff() bool    { return s.IsAuthenticated() && s.Role.IsStaff() }
func (s *Session) IsManager() bool  { return s.IsAuthenticated() && s.Role.IsManager() }

// Principal is the identity the backend returns from login/register.
type Principal struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// AuthResult is the backend's login/register response.
type AuthResult struct {
	Token string    `json:"token"`
	User  Principal `json:"user"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Customer mirrors the backend's /customers resource.  CardNumber holds the
// PAN of the card saved on file, if any.
type Customer struct {
	CustomerID  int64  `json:"customerId"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	IDCard      string `json:"idCard"`
	DateOfBirth Date   `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	CardNumber  string `json:"cardNumber,omitempty"`
}

// Employee mirrors the backend's /employees resource.  Password is only
// sent when creating an account or resetting it.
type Employee struct {
	EmployeeID int64  `json:"employeeId"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Role       Role   `json:"role"`
	Password   string `json:"password,omitempty"`
}
