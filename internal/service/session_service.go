package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/internal/records"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

// RecordsClient is the subset of the records API the aggregator calls.
type RecordsClient interface {
	Login(ctx context.Context, username, password string) ([]byte, error)
	Department(ctx context.Context, token, id string) (string, error)
	Faculty(ctx context.Context, token, id string) (string, error)
	Level(ctx context.Context, token, id string) (string, error)
	CGPA(ctx context.Context, token, studentID string) ([]byte, error)
}

// Aggregate is the outcome of a successful login.
type Aggregate struct {
	Session models.Session
	Record  models.StudentRecord
}

// SessionService logs a student in and assembles the card record.
type SessionService struct {
	client  RecordsClient
	cache   *CacheService
	rng     Random
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService constructs the aggregator. cache and metrics may be nil.
func NewSessionService(client RecordsClient, cache *CacheService, rng Random, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if rng == nil {
		rng = globalRandom{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{client: client, cache: cache, rng: rng, metrics: metrics, logger: logger, now: time.Now}
}

// Aggregate authenticates against the records API, then resolves department, faculty and level
// concurrently and finally the CGPA. Only the login step can fail; every later step degrades.
func (s *SessionService) Aggregate(ctx context.Context, creds models.Credentials) (*Aggregate, error) {
	raw, err := s.client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		s.logger.Warn("records login request failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}

	login, err := records.ParseLogin(raw)
	if err != nil {
		return nil, loginError(err)
	}

	user := login.User
	session := models.Session{
		AccessToken:  login.AccessToken,
		UserID:       user.ID,
		DepartmentID: user.DepartmentID,
		FacultyID:    user.FacultyID,
		LevelID:      user.LevelID,
		CreatedAt:    s.now().UTC(),
	}
	record := models.StudentRecord{
		Name:            user.Name,
		MatriculationID: user.MatriculationID,
		Course:          models.PlaceholderCourse,
		Department:      models.NotAvailable,
		Faculty:         models.NotAvailable,
		Level:           models.NotAvailable,
		Email:           user.Email,
		Phone:           user.Phone,
	}

	// Each lookup owns its own field and never returns an error, so one failure cannot cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		record.Department = s.lookup(ctx, records.EndpointDepartment, user.DepartmentID, login.AccessToken, s.client.Department)
		return nil
	})
	g.Go(func() error {
		record.Faculty = s.lookup(ctx, records.EndpointFaculty, user.FacultyID, login.AccessToken, s.client.Faculty)
		return nil
	})
	g.Go(func() error {
		record.Level = s.lookup(ctx, records.EndpointLevel, user.LevelID, login.AccessToken, s.client.Level)
		return nil
	})
	_ = g.Wait()

	record.CGPA = s.resolveCGPA(ctx, login.AccessToken, user.ID)

	s.logger.Info("card record aggregated",
		zap.String("user_id", user.ID),
		zap.String("cgpa_source", string(record.CGPA.Source)),
	)
	return &Aggregate{Session: session, Record: record}, nil
}

func loginError(err error) *appErrors.Error {
	var rejected *records.RejectedError
	switch {
	case errors.Is(err, records.ErrHTMLResponse):
		return appErrors.ErrInvalidCredentials
	case errors.Is(err, records.ErrMalformed):
		return appErrors.ErrUpstreamInvalidResponse
	case errors.Is(err, records.ErrMissingToken):
		return appErrors.Clone(appErrors.ErrLoginFailed, "Login failed: missing access token")
	case errors.As(err, &rejected):
		msg := rejected.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return appErrors.Clone(appErrors.ErrLoginFailed, "Login failed: "+msg)
	}
	return appErrors.ErrLoginFailed
}

type lookupFunc func(ctx context.Context, token, id string) (string, error)

func (s *SessionService) lookup(ctx context.Context, kind, id, token string, fetch lookupFunc) string {
	if id == "" {
		return models.NotAvailable
	}
	if name, ok := s.cache.LookupName(ctx, kind, id); ok {
		return name
	}
	name, err := fetch(ctx, token, id)
	if err != nil {
		s.logger.Warn("records lookup degraded", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		return models.NotAvailable
	}
	s.cache.StoreName(ctx, kind, id, name)
	return name
}

func (s *SessionService) resolveCGPA(ctx context.Context, token, studentID string) models.CGPA {
	if studentID == "" {
		return s.syntheticCGPA("missing_student_id")
	}
	raw, err := s.client.CGPA(ctx, token, studentID)
	if err != nil {
		s.logger.Warn("records cgpa request failed", zap.Error(err))
		return s.syntheticCGPA("transport")
	}
	if records.IsHTML(raw) {
		return s.syntheticCGPA("html")
	}
	value, ok := records.ParseCGPA(raw, models.CGPAMax)
	if !ok {
		return s.syntheticCGPA("unparseable")
	}
	return models.CGPA{Value: value, Source: models.CGPASourceUpstream}
}

// syntheticCGPA draws a placeholder in [SyntheticCGPAMin, SyntheticCGPAMax] rounded to two decimals.
func (s *SessionService) syntheticCGPA(reason string) models.CGPA {
	s.metrics.RecordSyntheticCGPA(reason)
	v := s.rng.Float64()*(models.SyntheticCGPAMax-models.SyntheticCGPAMin) + models.SyntheticCGPAMin
	v = math.Round(v*100) / 100
	return models.CGPA{Value: v, Source: models.CGPASourceSynthetic}
}
