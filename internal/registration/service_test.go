package registration_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"enroll/internal/registration"
	"enroll/internal/registration/events"
	"enroll/internal/registration/models"
	"enroll/internal/registration/password"
	securitystore "enroll/internal/registration/store/security"
	userstore "enroll/internal/registration/store/user"
	registrationmocks "enroll/mocks/registration"
	"enroll/pkg/sentinel"
)

type RegistrationServiceSuite struct {
	suite.Suite
	users     *userstore.MemoryStore
	security  *securitystore.MemoryStore
	hasher    *password.Hasher
	publisher *events.Capture
	service   *registration.Service
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.users = userstore.NewMemory()
	s.security = securitystore.NewMemory()
	s.hasher = password.New()
	s.publisher = events.NewCapture()

	var err error
	s.service, err = registration.NewService(s.users, s.security, s.hasher, s.publisher, discardLogger(), nil)
	s.Require().NoError(err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func command() models.RegisterCommand {
	return models.RegisterCommand{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "secret123",
	}
}

func (s *RegistrationServiceSuite) TestNewService() {
	s.Run("nil user store returns error", func() {
		_, err := registration.NewService(nil, s.security, s.hasher, s.publisher, discardLogger(), nil)
		s.Error(err)
		s.Contains(err.Error(), "user store is required")
	})

	s.Run("nil publisher returns error", func() {
		_, err := registration.NewService(s.users, s.security, s.hasher, nil, discardLogger(), nil)
		s.Error(err)
		s.Contains(err.Error(), "publisher is required")
	})
}

func (s *RegistrationServiceSuite) TestRegister() {
	ctx := context.Background()

	result, err := s.service.Register(ctx, command())
	s.Require().NoError(err)

	s.Run("result id matches the stored user", func() {
		user, err := s.users.FindByID(ctx, result.ID)
		s.Require().NoError(err)
		s.Equal("Ada", user.Name)
		s.Equal("ada@example.com", user.Email)
	})

	s.Run("credential verifies against the plaintext", func() {
		cred, ok := s.security.CredentialByUser(result.ID)
		s.Require().True(ok)
		valid, err := s.hasher.Verify("secret123", cred.PasswordHash, cred.Salt)
		s.Require().NoError(err)
		s.True(valid)
	})

	s.Run("history records the registration action", func() {
		entries := s.security.HistoryByUser(result.ID)
		s.Require().Len(entries, 1)
		s.Equal(models.ActionRegistration, entries[0].ActionType)
	})

	s.Run("counter incremented once", func() {
		s.Equal(int64(1), s.security.CounterValue(models.CounterUserRegistration))
	})

	s.Run("one event published with the new id", func() {
		published := s.publisher.Events()
		s.Require().Len(published, 1)
		s.Equal(registration.Subject, published[0].Subject)
		s.JSONEq(
			fmt.Sprintf(`{"event":"user.registered","user":{"id":%d,"username":"Ada","email":"ada@example.com"}}`, result.ID),
			string(published[0].Payload),
		)
	})
}

func (s *RegistrationServiceSuite) TestRegisterCounterAccumulates() {
	ctx := context.Background()

	_, err := s.service.Register(ctx, command())
	s.Require().NoError(err)

	second := command()
	second.Email = "grace@example.com"
	_, err = s.service.Register(ctx, second)
	s.Require().NoError(err)

	s.Equal(int64(2), s.security.CounterValue(models.CounterUserRegistration))
}

func (s *RegistrationServiceSuite) TestRegisterDuplicateEmailFailsFast() {
	ctx := context.Background()

	_, err := s.service.Register(ctx, command())
	s.Require().NoError(err)

	_, err = s.service.Register(ctx, command())
	s.Require().Error(err)

	var stageErr *registration.StageError
	s.Require().ErrorAs(err, &stageErr)
	s.Equal(registration.StageUserInsert, stageErr.Stage)
	s.Equal(registration.KindStore, stageErr.Kind)
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Equal(int64(1), s.security.CounterValue(models.CounterUserRegistration), "no security writes for the failed attempt")
	s.Len(s.publisher.Events(), 1, "no event for the failed attempt")
}

// Mock-based tests pin down which collaborators run when a stage fails: a
// mock with no expectations fails the test on any call.

func TestRegisterUserInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := registrationmocks.NewMockUserStore(ctrl)
	security := registrationmocks.NewMockSecurityStore(ctrl)
	hasher := registrationmocks.NewMockHasher(ctrl)
	publisher := registrationmocks.NewMockPublisher(ctrl)

	users.EXPECT().
		Insert(gomock.Any(), "Ada", "ada@example.com").
		Return(models.User{}, fmt.Errorf("connect: %w", sentinel.ErrUnavailable))

	svc, err := registration.NewService(users, security, hasher, publisher, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Register(context.Background(), command())
	var stageErr *registration.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != registration.StageUserInsert {
		t.Fatalf("expected stage %s, got %s", registration.StageUserInsert, stageErr.Stage)
	}
}

func TestRegisterHashFailureLeavesUser(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := userstore.NewMemory()
	security := registrationmocks.NewMockSecurityStore(ctrl)
	hasher := registrationmocks.NewMockHasher(ctrl)
	publisher := registrationmocks.NewMockPublisher(ctrl)

	hasher.EXPECT().
		Hash("secret123").
		Return(password.Credential{}, errors.New("entropy exhausted"))

	svc, err := registration.NewService(users, security, hasher, publisher, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Register(context.Background(), command())
	var stageErr *registration.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != registration.StageHash || stageErr.Kind != registration.KindHash {
		t.Fatalf("expected hash stage failure, got %s/%s", stageErr.Stage, stageErr.Kind)
	}

	// The user row survives the hash failure.
	if _, err := users.FindByID(context.Background(), 1); err != nil {
		t.Fatalf("expected user row to remain: %v", err)
	}
}

// historyFailingStore commits passwords and counters normally but rejects
// history appends, standing in for a partially unavailable store.
type historyFailingStore struct {
	*securitystore.MemoryStore
}

func (s *historyFailingStore) InsertHistory(ctx context.Context, userID int64, actionType string, ipAddress, deviceInfo *string) (int64, error) {
	return 0, fmt.Errorf("history append: %w", sentinel.ErrUnavailable)
}

func TestRegisterPartialSecurityFailure(t *testing.T) {
	users := userstore.NewMemory()
	security := &historyFailingStore{MemoryStore: securitystore.NewMemory()}
	publisher := events.NewCapture()

	svc, err := registration.NewService(users, security, password.New(), publisher, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Register(context.Background(), command())
	var stageErr *registration.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != registration.StageSecurity {
		t.Fatalf("expected security stage failure, got %s", stageErr.Stage)
	}

	// The sibling writes that already committed stay committed.
	if _, ok := security.CredentialByUser(1); !ok {
		t.Fatal("expected credential write to remain committed")
	}
	if got := security.CounterValue(models.CounterUserRegistration); got != 1 {
		t.Fatalf("expected counter at 1, got %d", got)
	}

	if len(publisher.Events()) != 0 {
		t.Fatal("no event may be published after a security stage failure")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	return fmt.Errorf("broker: %w", sentinel.ErrUnavailable)
}

func TestRegisterPublishFailureKeepsDurableState(t *testing.T) {
	users := userstore.NewMemory()
	security := securitystore.NewMemory()

	svc, err := registration.NewService(users, security, password.New(), failingPublisher{}, discardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Register(context.Background(), command())
	var stageErr *registration.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != registration.StagePublish || stageErr.Kind != registration.KindPublish {
		t.Fatalf("expected publish stage failure, got %s/%s", stageErr.Stage, stageErr.Kind)
	}

	// All store writes are durable even though the event was lost.
	if _, err := users.FindByID(context.Background(), 1); err != nil {
		t.Fatalf("expected user row: %v", err)
	}
	if _, ok := security.CredentialByUser(1); !ok {
		t.Fatal("expected credential row")
	}
	if entries := security.HistoryByUser(1); len(entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(entries))
	}
	if got := security.CounterValue(models.CounterUserRegistration); got != 1 {
		t.Fatalf("expected counter at 1, got %d", got)
	}
}
