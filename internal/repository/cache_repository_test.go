package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

func TestCacheRepositoryWithoutRedis(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.True(t, repo.Healthy(ctx))
	require.NoError(t, repo.Set(ctx, "idcard:lookup:level:4", "400", time.Minute))

	var name string
	err := repo.Get(ctx, "idcard:lookup:level:4", &name)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Empty(t, name)
	assert.NoError(t, repo.Close())
}
