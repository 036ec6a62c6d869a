package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idcard-api/internal/models"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

type stubAggregator struct {
	agg   *Aggregate
	err   error
	calls int
}

func (s *stubAggregator) Aggregate(context.Context, models.Credentials) (*Aggregate, error) {
	s.calls++
	return s.agg, s.err
}

func sampleAggregate() *Aggregate {
	return &Aggregate{
		Session: models.Session{AccessToken: "upstream", UserID: "42"},
		Record: models.StudentRecord{
			Name:            "Ada Obi",
			MatriculationID: "IAUE/19/001",
			Course:          models.PlaceholderCourse,
			Department:      "Physics",
			Faculty:         "Science",
			Level:           "400",
			CGPA:            models.CGPA{Value: 3.75, Source: models.CGPASourceUpstream},
			Email:           "ada@x.edu",
			Phone:           "0800",
		},
	}
}

func newAuthFixture(agg aggregator) (*AuthService, *StateStore) {
	store := NewStateStore(time.Hour, nil, nil)
	avatars := NewAvatarService(store, NewSeededRandom(1, 1), 1, nil, nil)
	svc := NewAuthService(agg, store, NewThemeService(), avatars, nil, nil, AuthConfig{
		TokenSecret: "secret",
		TokenExpiry: time.Hour,
		Issuer:      "idcard-api",
	})
	return svc, store
}

func TestAuthLoginCreatesSession(t *testing.T) {
	svc, store := newAuthFixture(&stubAggregator{agg: sampleAggregate()})

	res, err := svc.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "Ada Obi", res.Record.Name)
	assert.Equal(t, purpleScheme(), res.Scheme)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	st, err := store.Get(claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "upstream", st.Session.AccessToken)
	assert.Equal(t, uint64(1), st.Avatar.Generation)
	assert.NotEmpty(t, st.Avatar.Seed)
	assert.False(t, st.View.Flipped)
}

func TestAuthLoginValidation(t *testing.T) {
	agg := &stubAggregator{agg: sampleAggregate()}
	svc, _ := newAuthFixture(agg)

	_, err := svc.Login(context.Background(), models.Credentials{Username: "ada"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, agg.calls)
}

func TestAuthLoginPropagatesAggregateError(t *testing.T) {
	failure := appErrors.Clone(appErrors.ErrLoginFailed, "Login failed: bad password")
	svc, store := newAuthFixture(&stubAggregator{err: failure})

	_, err := svc.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Login failed: bad password", appErrors.FromError(err).Message)
	assert.Zero(t, store.Len())
}

func TestAuthLogoutInvalidatesToken(t *testing.T) {
	svc, _ := newAuthFixture(&stubAggregator{agg: sampleAggregate()})
	res, err := svc.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(claims.SessionID))
	_, err = svc.ValidateToken(res.Token)
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Logout(claims.SessionID), appErrors.ErrSessionNotFound)
}

func TestAuthValidateTokenRejectsForeignTokens(t *testing.T) {
	svc, _ := newAuthFixture(&stubAggregator{agg: sampleAggregate()})

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	claims := &models.JWTClaims{SessionID: "s1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "idcard-api"}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := &models.JWTClaims{SessionID: "s1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone"}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wrongIssuer).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
