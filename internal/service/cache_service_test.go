package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func TestCacheServiceRoundTrip(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(&memoryCacheRepo{}, metrics, time.Minute, nil, true)
	ctx := context.Background()

	_, ok := svc.LookupName(ctx, "faculty", "3")
	assert.False(t, ok)

	svc.StoreName(ctx, "faculty", "3", "Science")
	name, ok := svc.LookupName(ctx, "faculty", "3")
	assert.True(t, ok)
	assert.Equal(t, "Science", name)
	assert.InDelta(t, 0.5, metrics.Snapshot().CacheHitRatio, 1e-9)
}

func TestCacheServiceSkipsEmptyValues(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	svc.StoreName(context.Background(), "level", "4", "")
	svc.StoreName(context.Background(), "level", "", "400")
	assert.Empty(t, repo.data)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())

	svc.StoreName(context.Background(), "level", "4", "400")
	_, ok := svc.LookupName(context.Background(), "level", "4")
	assert.False(t, ok)
	assert.Empty(t, repo.data)

	var nilSvc *CacheService
	_, ok = nilSvc.LookupName(context.Background(), "level", "4")
	assert.False(t, ok)
}

func TestCacheServiceErrorsAreMisses(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil, true)

	_, ok := svc.LookupName(context.Background(), "department", "7")
	assert.False(t, ok)
	assert.NotPanics(t, func() { svc.StoreName(context.Background(), "department", "7", "Physics") })
}
