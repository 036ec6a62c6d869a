package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/idcard-api/internal/dto"
	"github.com/noah-isme/idcard-api/internal/middleware"
	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/internal/service"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/response"
)

type cardService interface {
	State(sessionID string) (models.AppState, error)
	ApplyTheme(sessionID, name string) (models.AppState, bool, error)
	SetColor(sessionID string, channel models.Channel, raw string) (models.AppState, error)
	SetScheme(sessionID string, scheme models.ColorScheme) (models.AppState, error)
	Flip(sessionID string) (models.AppState, error)
	AvatarSVG(sessionID string) ([]byte, error)
	AvatarPNG(ctx context.Context, sessionID string) ([]byte, error)
	QRCode(sessionID string) ([]byte, error)
	ExportFace(ctx context.Context, sessionID string, face models.Face) (*service.ExportedFile, error)
	ExportPDF(ctx context.Context, sessionID string) (*service.ExportedFile, error)
	CreateLinks(ctx context.Context, sessionID string) ([]service.DownloadLink, error)
	OpenDownload(token string) (*service.ExportedFile, error)
}

type themeCatalog interface {
	Themes() []models.Theme
}

type avatarRefresher interface {
	Refresh(sessionID string) (models.AppState, error)
}

// CardHandler serves card state, theming, assets and exports of the caller's session.
type CardHandler struct {
	cards     cardService
	themes    themeCatalog
	avatars   avatarRefresher
	validator *validator.Validate
}

// NewCardHandler constructs the handler.
func NewCardHandler(cards cardService, themes themeCatalog, avatars avatarRefresher, validate *validator.Validate) *CardHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &CardHandler{cards: cards, themes: themes, avatars: avatars, validator: validate}
}

// Get godoc
// @Summary Current card
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /card [get]
func (h *CardHandler) Get(c *gin.Context) {
	h.respond(c)(h.cards.State(middleware.SessionID(c)))
}

// Themes godoc
// @Summary List theme presets
// @Tags Card
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /card/themes [get]
func (h *CardHandler) Themes(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.themes.Themes())
}

// ApplyTheme godoc
// @Summary Apply a theme preset
// @Description Unknown names leave the scheme unchanged
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ThemeRequest true "Theme"
// @Success 200 {object} response.Envelope
// @Router /card/theme [post]
func (h *CardHandler) ApplyTheme(c *gin.Context) {
	var req dto.ThemeRequest
	if !h.bind(c, &req, "invalid theme payload") {
		return
	}
	st, applied, err := h.cards.ApplyTheme(middleware.SessionID(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCardResponse(st), map[string]interface{}{"applied": applied})
}

// SetColor godoc
// @Summary Set one color channel
// @Description Accepts hex, rgb(), lab(), lch(), oklab() and oklch(); anything else becomes white
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param channel path string true "primary, secondary, accent or text"
// @Param payload body dto.ColorRequest true "Color"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /card/colors/{channel} [patch]
func (h *CardHandler) SetColor(c *gin.Context) {
	var req dto.ColorRequest
	if !h.bind(c, &req, "invalid color payload") {
		return
	}
	h.respond(c)(h.cards.SetColor(middleware.SessionID(c), models.Channel(c.Param("channel")), req.Value))
}

// SetScheme godoc
// @Summary Replace the color scheme
// @Tags Card
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SchemeRequest true "Scheme"
// @Success 200 {object} response.Envelope
// @Router /card/scheme [put]
func (h *CardHandler) SetScheme(c *gin.Context) {
	var req dto.SchemeRequest
	if !h.bind(c, &req, "invalid scheme payload") {
		return
	}
	h.respond(c)(h.cards.SetScheme(middleware.SessionID(c), req.Scheme()))
}

// Flip godoc
// @Summary Flip the card
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /card/flip [post]
func (h *CardHandler) Flip(c *gin.Context) {
	h.respond(c)(h.cards.Flip(middleware.SessionID(c)))
}

// RefreshAvatar godoc
// @Summary Pick a new random avatar
// @Tags Card
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /card/avatar/refresh [post]
func (h *CardHandler) RefreshAvatar(c *gin.Context) {
	h.respond(c)(h.avatars.Refresh(middleware.SessionID(c)))
}

// AvatarSVG serves the vector avatar.
func (h *CardHandler) AvatarSVG(c *gin.Context) {
	data, err := h.cards.AvatarSVG(middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, "image/svg+xml", data)
}

// AvatarPNG serves the raster avatar.
func (h *CardHandler) AvatarPNG(c *gin.Context) {
	data, err := h.cards.AvatarPNG(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, "image/png", data)
}

// QRCode serves the verification QR code.
func (h *CardHandler) QRCode(c *gin.Context) {
	data, err := h.cards.QRCode(middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Inline(c, "image/png", data)
}

// ExportFace godoc
// @Summary Download one card face as PNG
// @Tags Export
// @Produce png
// @Security BearerAuth
// @Param face path string true "front or back"
// @Success 200 {file} binary
// @Failure 500 {object} response.Envelope
// @Router /card/export/{face} [get]
func (h *CardHandler) ExportFace(c *gin.Context) {
	face := models.Face(c.Param("face"))
	if face == "pdf" {
		h.ExportPDF(c)
		return
	}
	file, err := h.cards.ExportFace(c.Request.Context(), middleware.SessionID(c), face)
	h.attach(c, file, err)
}

// ExportPDF godoc
// @Summary Download both faces as a printable PDF
// @Tags Export
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /card/export/pdf [get]
func (h *CardHandler) ExportPDF(c *gin.Context) {
	file, err := h.cards.ExportPDF(c.Request.Context(), middleware.SessionID(c))
	h.attach(c, file, err)
}

// CreateLinks godoc
// @Summary Store exports and return signed download links
// @Tags Export
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /card/export/links [post]
func (h *CardHandler) CreateLinks(c *gin.Context) {
	links, err := h.cards.CreateLinks(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, links)
}

// Download godoc
// @Summary Fetch a stored export through a signed link
// @Tags Export
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /card/downloads/{token} [get]
func (h *CardHandler) Download(c *gin.Context) {
	file, err := h.cards.OpenDownload(c.Param("token"))
	h.attach(c, file, err)
}

func (h *CardHandler) bind(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	if err := h.validator.Struct(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func (h *CardHandler) respond(c *gin.Context) func(models.AppState, error) {
	return func(st models.AppState, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dto.NewCardResponse(st))
	}
}

func (h *CardHandler) attach(c *gin.Context, file *service.ExportedFile, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
