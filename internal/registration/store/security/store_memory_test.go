package security

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/registration/models"
	"enroll/pkg/sentinel"
)

func TestMemoryStoreInsertPassword(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	id, err := store.InsertPassword(ctx, 1, "digest", "salt")
	require.NoError(t, err)
	assert.NotZero(t, id)

	cred, ok := store.CredentialByUser(1)
	require.True(t, ok)
	assert.Equal(t, "digest", cred.PasswordHash)
	assert.Equal(t, "salt", cred.Salt)

	_, err = store.InsertPassword(ctx, 1, "digest", "salt")
	assert.ErrorIs(t, err, sentinel.ErrConflict, "one credential per user")
}

func TestMemoryStoreInsertHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ip := "203.0.113.7"
	id, err := store.InsertHistory(ctx, 1, models.ActionRegistration, &ip, nil)
	require.NoError(t, err)
	assert.NotZero(t, id)

	entries := store.HistoryByUser(1)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionRegistration, entries[0].ActionType)
	require.NotNil(t, entries[0].IPAddress)
	assert.Equal(t, ip, *entries[0].IPAddress)
	assert.Nil(t, entries[0].DeviceInfo)
}

func TestMemoryStoreUpsertCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first, err := store.UpsertCounter(ctx, models.CounterUserRegistration)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first, "counter starts at 1 on first event")

	second, err := store.UpsertCounter(ctx, models.CounterUserRegistration)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	other, err := store.UpsertCounter(ctx, "PASSWORD_RESET")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counters are independent per type")
}

func TestMemoryStoreUpsertCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.UpsertCounter(ctx, models.CounterUserRegistration)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n), store.CounterValue(models.CounterUserRegistration), "no lost updates")
}
