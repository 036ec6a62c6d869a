package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/avatar"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/jobs"
)

func newAvatarFixture(t *testing.T) (*AvatarService, *StateStore) {
	t.Helper()
	store := NewStateStore(time.Hour, nil, nil)
	svc := NewAvatarService(store, NewSeededRandom(1, 2), 1, nil, nil)
	store.Put(models.AppState{Session: models.Session{ID: "s1"}, Avatar: svc.PickAvatar()})
	return svc, store
}

func TestPickAvatarUniform(t *testing.T) {
	svc := NewAvatarService(NewStateStore(time.Hour, nil, nil), NewSeededRandom(42, 7), 1, nil, nil)
	counts := map[string]int{}
	const draws = 10000
	for i := 0; i < draws; i++ {
		a := svc.PickAvatar()
		counts[a.Seed]++
	}
	require.Len(t, counts, len(avatar.Seeds))
	for _, seed := range avatar.Seeds {
		assert.InDelta(t, draws/len(avatar.Seeds), counts[seed], 200, seed)
	}
}

func TestPickAvatarSVGMatchesSeed(t *testing.T) {
	svc := NewAvatarService(NewStateStore(time.Hour, nil, nil), nil, 1, nil, nil)
	a := svc.PickAvatar()
	assert.Equal(t, avatar.SVG(a.Seed), a.SVG)
	assert.False(t, a.Ready())
}

func TestRasterizeProducesSquarePNG(t *testing.T) {
	svc := NewAvatarService(NewStateStore(time.Hour, nil, nil), nil, 1, nil, nil)
	for _, seed := range avatar.Seeds {
		data, err := svc.Rasterize(context.Background(), avatar.SVG(seed))
		require.NoError(t, err, seed)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, seed)
		assert.Equal(t, AvatarRasterSize, img.Bounds().Dx())
		assert.Equal(t, AvatarRasterSize, img.Bounds().Dy())
	}
}

func TestRasterizeRejectsGarbage(t *testing.T) {
	svc := NewAvatarService(NewStateStore(time.Hour, nil, nil), nil, 1, nil, nil)
	_, err := svc.Rasterize(context.Background(), []byte("definitely not svg <"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Rasterize(ctx, avatar.SVG("alpha"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaleRasterizationDropped(t *testing.T) {
	svc, store := newAvatarFixture(t)
	svc.rasterize = func(context.Context, []byte) ([]byte, error) { return []byte("png"), nil }

	first, err := store.Get("s1")
	require.NoError(t, err)
	staleJob := jobs.Job{Payload: avatarJob{SessionID: "s1", Generation: first.Avatar.Generation, SVG: first.Avatar.SVG}}

	refreshed, err := svc.Refresh("s1")
	require.NoError(t, err)
	assert.Equal(t, first.Avatar.Generation+1, refreshed.Avatar.Generation)

	require.NoError(t, svc.handleJob(context.Background(), staleJob))
	st, err := store.Get("s1")
	require.NoError(t, err)
	assert.False(t, st.Avatar.Ready())

	currentJob := jobs.Job{Payload: avatarJob{SessionID: "s1", Generation: refreshed.Avatar.Generation, SVG: refreshed.Avatar.SVG}}
	require.NoError(t, svc.handleJob(context.Background(), currentJob))
	st, err = store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), st.Avatar.PNG)
}

func TestAvatarQueueAppliesResult(t *testing.T) {
	svc, store := newAvatarFixture(t)
	svc.Start(context.Background())
	defer svc.Stop()

	_, err := svc.Refresh("s1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, err := store.Get("s1")
		return err == nil && st.Avatar.Ready()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestAvatarPNGInlineFallback(t *testing.T) {
	svc, store := newAvatarFixture(t)
	st, err := store.Get("s1")
	require.NoError(t, err)

	data, err := svc.PNG(context.Background(), st)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	st, err = store.Get("s1")
	require.NoError(t, err)
	assert.True(t, st.Avatar.Ready())
}

func TestAvatarPNGFailure(t *testing.T) {
	svc, store := newAvatarFixture(t)
	svc.rasterize = func(context.Context, []byte) ([]byte, error) { return nil, errors.New("boom") }
	st, err := store.Get("s1")
	require.NoError(t, err)

	_, err = svc.PNG(context.Background(), st)
	assert.ErrorIs(t, err, appErrors.ErrAvatarUnavailable)
}

func TestRefreshUnknownSession(t *testing.T) {
	svc, _ := newAvatarFixture(t)
	_, err := svc.Refresh("nope")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}
