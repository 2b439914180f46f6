package household

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/handlers"
	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/remote"
	"github.com/AnshRaj112/canteen-backend/internal/routes"
	"github.com/AnshRaj112/canteen-backend/internal/services"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

func startServer(t *testing.T) string {
	t.Helper()
	tokens := services.NewTokenService("session-secret", time.Hour)
	handlers.InitHouseholdService(services.NewHouseholdService(
		services.NewMemoryHouseholds(),
		services.NewMemoryBucketStore(),
		services.NewMemoryChangeBus(services.NewChangeHub(zap.NewNop())),
		tokens,
		zap.NewNop(),
	))
	r := chi.NewRouter()
	routes.SetupRoutes(r, tokens)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newSession(t *testing.T, url string, store *storage.LocalStore, device string) *Session {
	t.Helper()
	return NewSession(store, remote.New(url, device, 5*time.Second, nil), nil)
}

func openStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.OpenLocalStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreatePersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	url := startServer(t)
	store := openStore(t)

	s := newSession(t, url, store, "device-a")
	h, err := s.Create(ctx, "X的家")
	require.NoError(t, err)
	assert.Equal(t, "X的家", h.Name)
	assert.NotEmpty(t, h.Token)
	assert.Equal(t, h, s.Current())

	restored := newSession(t, url, store, "device-a")
	got, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, h, restored.Current())
}

func TestJoin(t *testing.T) {
	ctx := context.Background()
	url := startServer(t)

	owner := newSession(t, url, openStore(t), "device-a")
	h, err := owner.Create(ctx, "Home")
	require.NoError(t, err)

	guest := newSession(t, url, openStore(t), "device-b")

	missing, err := guest.Join(ctx, "UNKNOWN999")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Nil(t, guest.Current())

	joined, err := guest.Join(ctx, h.InviteCode)
	require.NoError(t, err)
	require.NotNil(t, joined)
	assert.Equal(t, h.ID, joined.ID)
	assert.NotEmpty(t, joined.Token)

	// A later miss keeps the membership.
	missing, err = guest.Join(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Equal(t, h.ID, guest.Current().ID)
}

func TestLeaveClearsOnlyLocalReference(t *testing.T) {
	ctx := context.Background()
	url := startServer(t)
	store := openStore(t)

	owner := newSession(t, url, store, "device-a")
	h, err := owner.Create(ctx, "Home")
	require.NoError(t, err)

	require.NoError(t, owner.Leave(ctx))
	assert.Nil(t, owner.Current())

	got, err := newSession(t, url, store, "device-a").Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// The household still exists for anyone holding the code.
	other := newSession(t, url, openStore(t), "device-b")
	joined, err := other.Join(ctx, h.InviteCode)
	require.NoError(t, err)
	require.NotNil(t, joined)
}

func TestRenameNotifiesMembers(t *testing.T) {
	ctx := context.Background()
	url := startServer(t)

	owner := newSession(t, url, openStore(t), "device-a")
	h, err := owner.Create(ctx, "Home")
	require.NoError(t, err)

	member := newSession(t, url, openStore(t), "device-b")
	_, err = member.Join(ctx, h.InviteCode)
	require.NoError(t, err)

	events := make(chan models.ChangeEvent, 16)
	sub, err := member.Subscribe(ctx, h.ID, func(evt models.ChangeEvent) { events <- evt })
	require.NoError(t, err)
	defer sub.Unsubscribe()
	<-sub.Connected()

	var evt models.ChangeEvent
	name := "Home"
	require.Eventually(t, func() bool {
		name += "!"
		if _, err := owner.Rename(ctx, h.ID, name); err != nil {
			return false
		}
		select {
		case evt = <-events:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.ChangeKindHousehold, evt.Bucket)
	assert.Equal(t, "device-a", evt.Origin)
	assert.Equal(t, name, owner.Current().Name)
	assert.Positive(t, evt.Revision)
	assert.LessOrEqual(t, evt.Revision, owner.Current().Revision)

	// The member picks the new name up on refresh.
	refreshed, err := member.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, refreshed.Name)
	assert.Equal(t, name, member.Current().Name)
}

func TestRestoreIgnoresUnreadableReference(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Put(ctx, storage.KeyHousehold, []byte(`{oops`)))

	got, err := newSession(t, "http://127.0.0.1:1", store, "device-a").Restore(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
