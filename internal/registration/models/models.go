package models

import "time"

// Action types recorded in the security history log.
const ActionRegistration = "REGISTRATION"

// Counter types tracked in the system security counter table.
const CounterUserRegistration = "USER_REGISTRATION"

// RegisterCommand carries the input of one registration request. The plaintext
// password lives only in memory and is discarded after handling.
type RegisterCommand struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult is the only value returned to the caller of a successful
// registration.
type RegisterResult struct {
	ID int64 `json:"id"`
}

// User is the durable identity record. The registration pipeline never sets
// DeletedAt; it exists for soft deletion by other flows.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// SecurityCredential stores the derived password material, one-to-one with a
// user.
type SecurityCredential struct {
	ID           int64
	UserID       int64
	PasswordHash string
	Salt         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SecurityHistoryEntry is one row of the append-only audit log.
type SecurityHistoryEntry struct {
	ID         int64
	UserID     int64
	ActionType string
	IPAddress  *string
	DeviceInfo *string
	CreatedAt  time.Time
}

// SecurityCounter is a process-wide aggregate keyed by counter type, upserted
// atomically at the store level.
type SecurityCounter struct {
	CounterType  string
	CounterValue int64
	UpdatedAt    time.Time
}
