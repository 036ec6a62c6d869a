package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/avatar"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/jobs"
)

// AvatarRasterSize is the edge of the rasterized avatar in pixels.
const AvatarRasterSize = 200

const avatarJobKind = "avatar.rasterize"

type avatarJob struct {
	SessionID  string
	Generation uint64
	SVG        []byte
}

// AvatarService picks avatars and turns them into PNG images in the background.
type AvatarService struct {
	store     *StateStore
	rng       Random
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	rasterize func(ctx context.Context, svg []byte) ([]byte, error)
}

// NewAvatarService wires the avatar provider. rng may be nil for the process-wide source.
func NewAvatarService(store *StateStore, rng Random, workers int, metrics *MetricsService, logger *zap.Logger) *AvatarService {
	if rng == nil {
		rng = globalRandom{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AvatarService{store: store, rng: rng, metrics: metrics, logger: logger}
	s.rasterize = s.Rasterize
	s.queue = jobs.NewQueue("avatar", s.handleJob, jobs.QueueConfig{Workers: workers, Logger: logger})
	return s
}

// Start launches the rasterization workers.
func (s *AvatarService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *AvatarService) Stop() {
	s.queue.Stop()
}

// PickAvatar draws a seed uniformly from the pool and returns its SVG.
func (s *AvatarService) PickAvatar() models.Avatar {
	seed := avatar.Seeds[s.rng.IntN(len(avatar.Seeds))]
	return models.Avatar{Seed: seed, SVG: avatar.SVG(seed)}
}

// Rasterize renders svg into an AvatarRasterSize square PNG.
func (s *AvatarService) Rasterize(ctx context.Context, svg []byte) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("rasterize avatar: %v", r)
		}
	}()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse avatar svg: %w", err)
	}
	icon.SetTarget(0, 0, AvatarRasterSize, AvatarRasterSize)
	img := image.NewRGBA(image.Rect(0, 0, AvatarRasterSize, AvatarRasterSize))
	scanner := rasterx.NewScannerGV(AvatarRasterSize, AvatarRasterSize, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(AvatarRasterSize, AvatarRasterSize, scanner), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode avatar png: %w", err)
	}
	return buf.Bytes(), nil
}

// Schedule queues rasterization of the session's current avatar.
func (s *AvatarService) Schedule(sessionID string, a models.Avatar) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      fmt.Sprintf("%s#%d", sessionID, a.Generation),
		Kind:    avatarJobKind,
		Payload: avatarJob{SessionID: sessionID, Generation: a.Generation, SVG: a.SVG},
	})
	if err != nil {
		// The PNG is produced inline on first use instead.
		s.logger.Debug("avatar rasterization not queued", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Refresh gives the session a new random avatar and schedules its rasterization.
func (s *AvatarService) Refresh(sessionID string) (models.AppState, error) {
	picked := s.PickAvatar()
	state, err := s.store.Update(sessionID, func(st *models.AppState) error {
		picked.Generation = st.Avatar.Generation + 1
		st.Avatar = picked
		return nil
	})
	if err != nil {
		return models.AppState{}, err
	}
	s.Schedule(sessionID, state.Avatar)
	return state, nil
}

// PNG returns the raster avatar of the session, rasterizing inline if the worker has not finished.
func (s *AvatarService) PNG(ctx context.Context, state models.AppState) ([]byte, error) {
	if state.Avatar.Ready() {
		return state.Avatar.PNG, nil
	}
	if len(state.Avatar.SVG) == 0 {
		return nil, appErrors.ErrAvatarUnavailable
	}
	data, err := s.rasterize(ctx, state.Avatar.SVG)
	if err != nil {
		s.metrics.RecordAvatarRender("error")
		return nil, appErrors.Wrap(err, appErrors.ErrAvatarUnavailable.Code, appErrors.ErrAvatarUnavailable.Status, "avatar could not be rendered")
	}
	s.apply(state.Session.ID, state.Avatar.Generation, data)
	return data, nil
}

func (s *AvatarService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(avatarJob)
	if !ok {
		return fmt.Errorf("unexpected avatar job payload %T", job.Payload)
	}
	data, err := s.rasterize(ctx, payload.SVG)
	if err != nil {
		s.metrics.RecordAvatarRender("error")
		return err
	}
	s.apply(payload.SessionID, payload.Generation, data)
	return nil
}

// apply stores data only if generation is still the session's current avatar.
func (s *AvatarService) apply(sessionID string, generation uint64, data []byte) {
	var stale bool
	_, err := s.store.Update(sessionID, func(st *models.AppState) error {
		if st.Avatar.Generation != generation {
			stale = true
			return nil
		}
		st.Avatar.PNG = data
		return nil
	})
	switch {
	case err != nil:
		s.metrics.RecordAvatarRender("stale")
	case stale:
		s.metrics.RecordAvatarRender("stale")
		s.logger.Debug("stale avatar rasterization dropped", zap.String("session_id", sessionID), zap.Uint64("generation", generation))
	default:
		s.metrics.RecordAvatarRender("applied")
	}
}
