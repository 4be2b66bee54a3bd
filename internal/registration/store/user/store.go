package user

import (
	"context"

	"enroll/internal/registration/models"
)

// Store persists user identity records. Insert assigns the identifier and
// timestamps; the pipeline treats the created row as immutable afterwards.
type Store interface {
	Insert(ctx context.Context, name, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}
