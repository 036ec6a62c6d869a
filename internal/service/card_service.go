package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/colorconv"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/export"
	"github.com/noah-isme/idcard-api/pkg/render"
	"github.com/noah-isme/idcard-api/pkg/storage"
)

// QRSize is the edge of the QR code image in pixels.
const QRSize = 240

// PDFFilename is the download name of the printable sheet.
const PDFFilename = "student_card.pdf"

const (
	contentTypePNG = "image/png"
	contentTypePDF = "application/pdf"
	maxStars       = 5
)

// ExportedFile is a rendered download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DownloadLink is a signed, expiring reference to a stored export.
type DownloadLink struct {
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CardConfig tunes face capture.
type CardConfig struct {
	PixelRatio float64
	Background string
}

type captureFunc func(ctx context.Context, state models.AppState, face models.Face) (image.Image, error)

// CardService renders, themes and exports the card of a session.
type CardService struct {
	store   *StateStore
	themes  *ThemeService
	avatars *AvatarService
	pdf     *export.PDFExporter
	files   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	config  CardConfig
	capture captureFunc
}

// NewCardService wires the renderer. files and signer may be nil when stored downloads are disabled.
func NewCardService(store *StateStore, themes *ThemeService, avatars *AvatarService, files *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, config CardConfig) *CardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PixelRatio <= 0 {
		config.PixelRatio = 2
	}
	if !colorconv.IsHex(config.Background) {
		config.Background = "#1F2937"
	}
	s := &CardService{
		store:   store,
		themes:  themes,
		avatars: avatars,
		pdf:     export.NewPDFExporter("Student ID Card"),
		files:   files,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		config:  config,
	}
	s.capture = s.renderFace
	return s
}

// State returns the session's card state.
func (s *CardService) State(sessionID string) (models.AppState, error) {
	return s.store.Get(sessionID)
}

// ApplyTheme switches the session to a preset. Unknown names leave the scheme as it was.
func (s *CardService) ApplyTheme(sessionID, name string) (models.AppState, bool, error) {
	var applied bool
	state, err := s.store.Update(sessionID, func(st *models.AppState) error {
		st.Scheme, applied = s.themes.ApplyTheme(st.Scheme, name)
		return nil
	})
	return state, applied, err
}

// SetColor normalizes raw and assigns it to one channel of the session's scheme.
func (s *CardService) SetColor(sessionID string, channel models.Channel, raw string) (models.AppState, error) {
	return s.store.Update(sessionID, func(st *models.AppState) error {
		next, err := s.themes.SetChannel(st.Scheme, channel, raw)
		if err != nil {
			return err
		}
		st.Scheme = next
		return nil
	})
}

// SetScheme replaces the whole scheme; every channel is normalized.
func (s *CardService) SetScheme(sessionID string, scheme models.ColorScheme) (models.AppState, error) {
	return s.store.Update(sessionID, func(st *models.AppState) error {
		st.Scheme = s.themes.NormalizeScheme(scheme)
		return nil
	})
}

// Flip toggles which face is showing.
func (s *CardService) Flip(sessionID string) (models.AppState, error) {
	return s.store.Update(sessionID, func(st *models.AppState) error {
		st.View.Flipped = !st.View.Flipped
		return nil
	})
}

// AvatarSVG returns the vector avatar of the session.
func (s *CardService) AvatarSVG(sessionID string) ([]byte, error) {
	state, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if len(state.Avatar.SVG) == 0 {
		return nil, appErrors.ErrAvatarUnavailable
	}
	return state.Avatar.SVG, nil
}

// AvatarPNG returns the raster avatar of the session.
func (s *CardService) AvatarPNG(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.avatars.PNG(ctx, state)
}

// QRCode renders the verification QR code of the session as PNG.
func (s *CardService) QRCode(sessionID string) ([]byte, error) {
	state, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.qr(state)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render qr code")
	}
	data, err := q.PNG(QRSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode qr code")
	}
	return data, nil
}

// ExportFace captures one face as PNG. The flip transform is suspended while the capture runs and
// restored afterwards whether or not the capture succeeds.
func (s *CardService) ExportFace(ctx context.Context, sessionID string, face models.Face) (*ExportedFile, error) {
	if !face.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown card face %q", face))
	}

	state, restore, err := s.suspendRotation(sessionID)
	if err != nil {
		return nil, err
	}
	defer restore()

	data, err := s.captureFace(ctx, state, face)
	s.metrics.RecordExport(string(face), err)
	if err != nil {
		s.logger.Warn("card export failed", zap.String("session_id", sessionID), zap.String("face", string(face)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, appErrors.ErrExportFailed.Message)
	}
	return &ExportedFile{Filename: face.Filename(), ContentType: contentTypePNG, Data: data}, nil
}

// ExportPDF lays both faces out on a printable sheet.
func (s *CardService) ExportPDF(ctx context.Context, sessionID string) (*ExportedFile, error) {
	front, err := s.ExportFace(ctx, sessionID, models.FaceFront)
	if err != nil {
		return nil, err
	}
	back, err := s.ExportFace(ctx, sessionID, models.FaceBack)
	if err != nil {
		return nil, err
	}

	data, err := s.pdf.Render(
		export.Image{Name: string(models.FaceFront), PNG: front.Data},
		export.Image{Name: string(models.FaceBack), PNG: back.Data},
	)
	s.metrics.RecordExport("pdf", err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, appErrors.ErrExportFailed.Message)
	}
	return &ExportedFile{Filename: PDFFilename, ContentType: contentTypePDF, Data: data}, nil
}

// CreateLinks stores every export of the session and returns signed download links.
func (s *CardService) CreateLinks(ctx context.Context, sessionID string) ([]DownloadLink, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "stored downloads are disabled")
	}

	var exports []*ExportedFile
	for _, face := range []models.Face{models.FaceFront, models.FaceBack} {
		file, err := s.ExportFace(ctx, sessionID, face)
		if err != nil {
			return nil, err
		}
		exports = append(exports, file)
	}
	pdf, err := s.ExportPDF(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	exports = append(exports, pdf)

	links := make([]DownloadLink, 0, len(exports))
	for _, file := range exports {
		rel, err := s.files.Save(path.Join(sessionID, file.Filename), file.Data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, appErrors.ErrExportFailed.Message)
		}
		token, expiresAt, err := s.signer.Generate(sessionID, rel)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
		}
		links = append(links, DownloadLink{Filename: file.Filename, Token: token, ExpiresAt: expiresAt})
	}
	return links, nil
}

// OpenDownload resolves a signed token to the stored file.
func (s *CardService) OpenDownload(token string) (*ExportedFile, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.ErrNotFound
	}
	owner, rel, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link invalid")
	}
	if path.Dir(rel) != owner {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "download link invalid")
	}
	data, err := s.files.Read(rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "download no longer available")
	}
	name := path.Base(rel)
	contentType := contentTypePNG
	if name == PDFFilename {
		contentType = contentTypePDF
	}
	return &ExportedFile{Filename: name, ContentType: contentType, Data: data}, nil
}

// DiscardDownloads deletes stored exports of a session.
func (s *CardService) DiscardDownloads(sessionID string) {
	if s.files == nil || sessionID == "" {
		return
	}
	if err := s.files.DeleteDir(sessionID); err != nil {
		s.logger.Warn("failed to delete session exports", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// PruneDownloads removes stored exports older than maxAge and reports how many went.
func (s *CardService) PruneDownloads(maxAge time.Duration) int {
	if s.files == nil {
		return 0
	}
	deleted, err := s.files.CleanupOlderThan(maxAge)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}
	return len(deleted)
}

func (s *CardService) suspendRotation(sessionID string) (models.AppState, func(), error) {
	state, err := s.store.Update(sessionID, func(st *models.AppState) error {
		st.View.Captures++
		return nil
	})
	if err != nil {
		return models.AppState{}, nil, err
	}
	restore := func() {
		_, err := s.store.Update(sessionID, func(st *models.AppState) error {
			if st.View.Captures > 0 {
				st.View.Captures--
			}
			return nil
		})
		if err != nil && !errors.Is(err, appErrors.ErrSessionNotFound) {
			s.logger.Warn("failed to restore card transform", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return state, restore, nil
}

func (s *CardService) captureFace(ctx context.Context, state models.AppState, face models.Face) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("capture %s: %v", face, r)
		}
	}()
	img, err := s.capture(ctx, state, face)
	if err != nil {
		return nil, err
	}
	return render.PNG(img)
}

func (s *CardService) renderFace(ctx context.Context, state models.AppState, face models.Face) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bg, err := colorconv.ParseHex(s.config.Background)
	if err != nil {
		return nil, err
	}
	opts := render.Options{
		PixelRatio: s.config.PixelRatio,
		Background: bg,
		Mirrored:   state.View.Rotation() == 180,
	}
	palette := s.themes.Palette(state.Scheme)
	rec := state.Record

	if face == models.FaceBack {
		q, err := s.qr(state)
		if err != nil {
			return nil, err
		}
		return render.BackFace{
			Palette:  palette,
			Gradient: s.themes.BackGradient(state.Scheme),
			Caption:  "Scan to verify",
			QR:       q.Image(QRSize),
			Fields: []render.Field{
				{Label: "Email", Value: rec.Email},
				{Label: "Phone", Value: rec.Phone},
				{Label: "Matric No", Value: rec.MatriculationID},
			},
		}.Draw(opts)
	}

	var portrait image.Image
	if raw, err := s.avatars.PNG(ctx, state); err != nil {
		s.logger.Warn("rendering card without avatar", zap.String("session_id", state.Session.ID), zap.Error(err))
	} else if portrait, err = png.Decode(bytes.NewReader(raw)); err != nil {
		s.logger.Warn("avatar png unreadable", zap.String("session_id", state.Session.ID), zap.Error(err))
		portrait = nil
	}

	return render.FrontFace{
		Palette:  palette,
		Gradient: s.themes.FrontGradient(state.Scheme),
		Title:    "STUDENT ID CARD",
		Name:     rec.Name,
		ID:       rec.MatriculationID,
		Fields: []render.Field{
			{Label: "Course", Value: rec.Course},
			{Label: "Department", Value: rec.Department},
			{Label: "Faculty", Value: rec.Faculty},
			{Label: "Level", Value: rec.Level},
		},
		Stars:    rec.CGPA.Stars(maxStars),
		MaxStars: maxStars,
		Score:    cgpaLabel(rec.CGPA),
		Avatar:   portrait,
	}.Draw(opts)
}

func (s *CardService) qr(state models.AppState) (*qrcode.QRCode, error) {
	payload, err := json.Marshal(state.Record.QRPayload())
	if err != nil {
		return nil, err
	}
	q, err := qrcode.New(string(payload), qrcode.High)
	if err != nil {
		return nil, err
	}
	q.BackgroundColor = solid(state.Scheme.Secondary)
	q.ForegroundColor = solid(state.Scheme.Accent)
	return q, nil
}

func cgpaLabel(c models.CGPA) string {
	label := fmt.Sprintf("CGPA: %.2f", c.Value)
	if c.Synthetic() {
		label += " (est.)"
	}
	return label
}

func solid(hex string) color.Color {
	return colorconv.WithAlpha(hex, 0xff)
}
