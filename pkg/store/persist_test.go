package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/homeview/pkg/adapters/memory"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
	"github.com/aretw0/homeview/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRestore(t *testing.T) {
	ctx := context.Background()
	snapshots := memory.NewStore()

	t.Run("Missing Snapshot Yields Default", func(t *testing.T) {
		state, err := store.Restore(ctx, snapshots, "nobody")
		require.NoError(t, err)
		assert.Equal(t, domain.NewActionState(), state)
	})

	t.Run("Existing Snapshot", func(t *testing.T) {
		require.NoError(t, snapshots.Save(ctx, "ada", domain.ActionState{Name: "Ada"}))
		state, err := store.Restore(ctx, snapshots, "ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada", state.Name)
	})

	t.Run("Backend Failure", func(t *testing.T) {
		failing := &MockSnapshotStore{}
		failing.On("Load", mock.Anything, "ada").Return(domain.ActionState{}, errors.New("connection refused"))

		_, err := store.Restore(ctx, failing, "ada")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
	})
}

func TestPersister_SavesLatestSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := memory.NewStore()
	s := store.New()
	p := store.NewPersister(snapshots, "default")
	p.Attach(ctx, s)

	s.Dispatch(domain.UpdateName("Ada"))
	s.Dispatch(domain.OpenMenu())
	p.Close()

	saved, err := snapshots.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionState{Name: "Ada", Action: domain.ActionOpenMenu}, saved)

	// Detached: later dispatches are not persisted.
	s.Dispatch(domain.CloseMenu())
	saved, _ = snapshots.Load(ctx, "default")
	assert.Equal(t, domain.ActionOpenMenu, saved.Action)
}

func TestPersister_UsesLocker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locker := &MockLocker{}
	unlocked := make(chan struct{}, 8)
	var unlock ports.UnlockFunc = func(context.Context) error {
		unlocked <- struct{}{}
		return nil
	}
	locker.On("Lock", mock.Anything, "default", 10*time.Second).Return(unlock, nil)

	s := store.New()
	p := store.NewPersister(memory.NewStore(), "default", store.WithLocker(locker, 10*time.Second))
	p.Attach(ctx, s)

	s.Dispatch(domain.OpenMenu())

	select {
	case <-unlocked:
	case <-time.After(time.Second):
		t.Fatal("lock was never released")
	}
	p.Close()
	locker.AssertExpectations(t)
}

func TestPersister_CloseWithoutAttach(t *testing.T) {
	p := store.NewPersister(memory.NewStore(), "default")
	done := make(chan struct{})
	go func() {
		p.Close()
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked without Attach")
	}
}

// MockSnapshotStore is a testify mock of ports.SnapshotStore.
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, key string, state domain.ActionState) error {
	return m.Called(ctx, key, state).Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context, key string) (domain.ActionState, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.ActionState), args.Error(1)
}

func (m *MockSnapshotStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockSnapshotStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// MockLocker is a testify mock of ports.DistributedLocker.
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	return args.Get(0).(ports.UnlockFunc), args.Error(1)
}
