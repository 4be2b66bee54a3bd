package security

import "context"

// Store persists password credentials, the append-only security history, and
// the aggregate security counters. The three writes are independent; callers
// decide ordering and failure policy.
type Store interface {
	// InsertPassword creates one credential row for the user and returns its id.
	InsertPassword(ctx context.Context, userID int64, passwordHash, salt string) (int64, error)

	// InsertHistory appends one audit row and returns its id. IP address and
	// device info are optional.
	InsertHistory(ctx context.Context, userID int64, actionType string, ipAddress, deviceInfo *string) (int64, error)

	// UpsertCounter creates the counter at 1 if absent, otherwise increments it
	// atomically, and returns the post-increment value. The increment must not
	// lose updates under concurrent writers.
	UpsertCounter(ctx context.Context, counterType string) (int64, error)
}
