package models

import (
	"database/sql"
	"time"
)

type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserApproved UserStatus = "approved"
	UserRejected UserStatus = "rejected"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	Country      sql.NullString
	CreatedAt    time.Time
}
