package registration

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"enroll/internal/platform/metrics"
	"enroll/internal/registration/models"
	"enroll/internal/registration/password"
)

//go:generate mockgen -source=service.go -destination=../../mocks/registration/mocks.go -package=registrationmocks

// Subject is the event channel new registrations are announced on.
const Subject = "user.registered"

// UserStore is the pipeline's port to durable user records.
type UserStore interface {
	Insert(ctx context.Context, name, email string) (models.User, error)
}

// SecurityStore is the pipeline's port to credential, history, and counter
// writes. The three operations are independent and idempotent-unsafe.
type SecurityStore interface {
	InsertPassword(ctx context.Context, userID int64, passwordHash, salt string) (int64, error)
	InsertHistory(ctx context.Context, userID int64, actionType string, ipAddress, deviceInfo *string) (int64, error)
	UpsertCounter(ctx context.Context, counterType string) (int64, error)
}

// Hasher derives salted password digests.
type Hasher interface {
	Hash(plaintext string) (password.Credential, error)
}

// Publisher announces domain events. Failure to publish never undoes store
// writes.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// Service runs the registration command pipeline. Steps are ordered: user
// insert, credential derivation, a concurrent fan-out of the three security
// writes, then the event publish. There is no cross-store transaction and no
// compensation; each failure aborts the remaining steps and is reported with
// its stage so partial state can be reconciled manually.
type Service struct {
	users     UserStore
	security  SecurityStore
	hasher    Hasher
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewService validates and wires the pipeline's dependencies. Metrics may be
// nil.
func NewService(users UserStore, security SecurityStore, hasher Hasher, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if security == nil {
		return nil, errors.New("security store is required")
	}
	if hasher == nil {
		return nil, errors.New("hasher is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		users:     users,
		security:  security,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}, nil
}

// registeredEvent is the wire format announced on Subject.
type registeredEvent struct {
	Event string         `json:"event"`
	User  registeredUser `json:"user"`
}

type registeredUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Register handles one registration command. Retries, deadlines, and request
// parsing belong to the caller.
func (s *Service) Register(ctx context.Context, cmd models.RegisterCommand) (models.RegisterResult, error) {
	start := time.Now()

	user, err := s.users.Insert(ctx, cmd.Name, cmd.Email)
	if err != nil {
		return models.RegisterResult{}, s.fail(ctx, StageUserInsert, KindStore, err, 0)
	}

	cred, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		// The user row stays; security records for it do not exist yet.
		return models.RegisterResult{}, s.fail(ctx, StageHash, KindHash, err, user.ID)
	}

	// The three security writes run concurrently and are joined. The first
	// error wins; writes that already committed are not rolled back.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.security.InsertPassword(gctx, user.ID, cred.Hash, cred.Salt)
		return err
	})
	g.Go(func() error {
		_, err := s.security.InsertHistory(gctx, user.ID, models.ActionRegistration, nil, nil)
		return err
	})
	g.Go(func() error {
		_, err := s.security.UpsertCounter(gctx, models.CounterUserRegistration)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.RegisterResult{}, s.fail(ctx, StageSecurity, KindStore, err, user.ID)
	}

	payload, err := json.Marshal(registeredEvent{
		Event: Subject,
		User: registeredUser{
			ID:       user.ID,
			Username: user.Name,
			Email:    user.Email,
		},
	})
	if err != nil {
		return models.RegisterResult{}, s.fail(ctx, StagePublish, KindPublish, err, user.ID)
	}

	if err := s.publisher.Publish(ctx, Subject, payload); err != nil {
		// Durable state is complete at this point; the registration stands
		// even though the event was lost.
		return models.RegisterResult{}, s.fail(ctx, StagePublish, KindPublish, err, user.ID)
	}

	if s.metrics != nil {
		s.metrics.ObserveSuccess(time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return models.RegisterResult{ID: user.ID}, nil
}

func (s *Service) fail(ctx context.Context, stage Stage, kind Kind, err error, userID int64) error {
	if s.metrics != nil {
		s.metrics.ObserveFailure(string(stage))
	}
	attrs := []any{
		"stage", string(stage),
		"error", err,
	}
	if userID != 0 {
		attrs = append(attrs, "user_id", userID)
	}
	s.logger.ErrorContext(ctx, "registration failed", attrs...)
	return stageErr(stage, kind, err)
}
