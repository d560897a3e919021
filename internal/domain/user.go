package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleCustomer    Role = "customer"
	RoleSalesperson Role = "sales"
)

type User struct {
	ID           int64
	PasswordHash string
	Role         Role
}

type Customer struct {
	ID    int64
	Name  string
	Email string
}

// Session scopes cart lines and the search and view logs of one login.
type Session struct {
	CustomerID int64      `json:"customer_id"`
	SessionNo  int64      `json:"session_no"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

func (s Session) Key() string {
	return fmt.Sprintf("%d:%d", s.CustomerID, s.SessionNo)
}

func (s Session) Valid() bool {
	return s.CustomerID > 0 && s.SessionNo > 0
}
