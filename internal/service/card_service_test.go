package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/avatar"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/storage"
)

type cardFixture struct {
	svc   *CardService
	store *StateStore
	id    string
}

func newCardFixture(t *testing.T, withStorage bool) cardFixture {
	t.Helper()
	store := NewStateStore(time.Hour, nil, nil)
	themes := NewThemeService()
	avatars := NewAvatarService(store, NewSeededRandom(5, 6), 1, nil, nil)

	var files *storage.LocalStorage
	var signer *storage.SignedURLSigner
	if withStorage {
		var err error
		files, err = storage.NewLocalStorage(t.TempDir())
		require.NoError(t, err)
		signer = storage.NewSignedURLSigner("links", time.Minute)
	}

	svc := NewCardService(store, themes, avatars, files, signer, nil, nil, CardConfig{PixelRatio: 1})
	st := store.Put(models.AppState{
		Session: models.Session{ID: "card-1"},
		Record:  sampleAggregate().Record,
		Scheme:  themes.DefaultScheme(),
		Avatar:  models.Avatar{Seed: avatar.Seeds[0], SVG: avatar.SVG(avatar.Seeds[0]), Generation: 1},
	})
	return cardFixture{svc: svc, store: store, id: st.Session.ID}
}

func TestCardApplyTheme(t *testing.T) {
	f := newCardFixture(t, false)

	st, ok, err := f.svc.ApplyTheme(f.id, "green")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, purpleScheme(), st.Scheme)

	before := st.Scheme
	st, ok, err = f.svc.ApplyTheme(f.id, "no-such-theme")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, st.Scheme)

	_, _, err = f.svc.ApplyTheme("missing", "green")
	assert.ErrorIs(t, err, appErrors.ErrSessionNotFound)
}

func TestCardSetColorNormalizes(t *testing.T) {
	f := newCardFixture(t, false)

	st, err := f.svc.SetColor(f.id, models.ChannelAccent, "rgb(255, 0, 0)")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", st.Scheme.Accent)

	_, err = f.svc.SetColor(f.id, models.Channel("border"), "#000000")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	st, err = f.svc.State(f.id)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", st.Scheme.Accent)
}

func TestCardFlipToggles(t *testing.T) {
	f := newCardFixture(t, false)

	st, err := f.svc.Flip(f.id)
	require.NoError(t, err)
	assert.Equal(t, 180, st.View.Rotation())

	st, err = f.svc.Flip(f.id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.View.Rotation())
}

func TestCardExportFaceFilenamesAndSize(t *testing.T) {
	f := newCardFixture(t, false)
	f.svc.config.PixelRatio = 2

	for _, face := range []models.Face{models.FaceFront, models.FaceBack} {
		file, err := f.svc.ExportFace(context.Background(), f.id, face)
		require.NoError(t, err)
		assert.Equal(t, "student_"+string(face)+".png", file.Filename)
		assert.Equal(t, "image/png", file.ContentType)

		img, err := png.Decode(bytes.NewReader(file.Data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 800, 504), img.Bounds())
	}
}

func TestCardExportSuspendsRotation(t *testing.T) {
	f := newCardFixture(t, false)
	_, err := f.svc.Flip(f.id)
	require.NoError(t, err)

	var seen int
	f.svc.capture = func(_ context.Context, st models.AppState, _ models.Face) (image.Image, error) {
		seen = st.View.Rotation()
		return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
	}

	_, err = f.svc.ExportFace(context.Background(), f.id, models.FaceBack)
	require.NoError(t, err)
	assert.Equal(t, 0, seen)

	st, err := f.svc.State(f.id)
	require.NoError(t, err)
	assert.Equal(t, 180, st.View.Rotation())
	assert.Zero(t, st.View.Captures)
}

func TestCardExportFailureRestoresRotation(t *testing.T) {
	f := newCardFixture(t, false)
	_, err := f.svc.Flip(f.id)
	require.NoError(t, err)

	f.svc.capture = func(context.Context, models.AppState, models.Face) (image.Image, error) {
		return nil, errors.New("canvas exploded")
	}
	_, err = f.svc.ExportFace(context.Background(), f.id, models.FaceFront)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrExportFailed.Code, appErr.Code)
	assert.Equal(t, "Failed to download image. Please try again.", appErr.Message)

	f.svc.capture = func(context.Context, models.AppState, models.Face) (image.Image, error) {
		panic("boom")
	}
	_, err = f.svc.ExportFace(context.Background(), f.id, models.FaceFront)
	assert.ErrorIs(t, err, appErrors.ErrExportFailed)

	st, err := f.svc.State(f.id)
	require.NoError(t, err)
	assert.Equal(t, 180, st.View.Rotation())
	assert.Zero(t, st.View.Captures)
}

func TestCardExportRejectsUnknownFace(t *testing.T) {
	f := newCardFixture(t, false)
	_, err := f.svc.ExportFace(context.Background(), f.id, models.Face("side"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCardExportPDF(t *testing.T) {
	f := newCardFixture(t, false)

	file, err := f.svc.ExportPDF(context.Background(), f.id)
	require.NoError(t, err)
	assert.Equal(t, PDFFilename, file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestCardQRCode(t *testing.T) {
	f := newCardFixture(t, false)

	data, err := f.svc.QRCode(f.id)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, QRSize, img.Bounds().Dx())
}

func TestCardAvatarAssets(t *testing.T) {
	f := newCardFixture(t, false)

	svg, err := f.svc.AvatarSVG(f.id)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	raw, err := f.svc.AvatarPNG(context.Background(), f.id)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestCardDownloadLinks(t *testing.T) {
	f := newCardFixture(t, true)

	links, err := f.svc.CreateLinks(context.Background(), f.id)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "student_front.png", links[0].Filename)
	assert.Equal(t, PDFFilename, links[2].Filename)

	file, err := f.svc.OpenDownload(links[2].Token)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)

	_, err = f.svc.OpenDownload(links[0].Token + "x")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	f.svc.DiscardDownloads(f.id)
	_, err = f.svc.OpenDownload(links[0].Token)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCardDownloadLinksDisabled(t *testing.T) {
	f := newCardFixture(t, false)
	_, err := f.svc.CreateLinks(context.Background(), f.id)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCGPALabel(t *testing.T) {
	assert.Equal(t, "CGPA: 3.75", cgpaLabel(models.CGPA{Value: 3.75, Source: models.CGPASourceUpstream}))
	assert.Equal(t, "CGPA: 2.40 (est.)", cgpaLabel(models.CGPA{Value: 2.4, Source: models.CGPASourceSynthetic}))
}
