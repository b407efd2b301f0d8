// internal/handlers/publish.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type PublishHandler struct {
	publish *services.PublishService
	api     APIProvider
}

func NewPublishHandler(publish *services.PublishService, api APIProvider) *PublishHandler {
	return &PublishHandler{publish: publish, api: api}
}

func (h *PublishHandler) publisher(c *gin.Context) *services.Publisher {
	user, _ := utils.GetUserFromContext(c)
	id, _ := utils.GetSessionIDFromContext(c)
	return h.publish.For(id, user, h.api(c))
}

// POST /wallet/connect
func (h *PublishHandler) ConnectWallet(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	info, err := h.publisher(c).Wallet().Connect(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyWalletConnected),
		"wallet":  info,
	})
}

// GET /wallet
func (h *PublishHandler) GetWallet(c *gin.Context) {
	utils.SuccessResponse(c, h.publisher(c).Wallet().Snapshot())
}

// DELETE /wallet
func (h *PublishHandler) DisconnectWallet(c *gin.Context) {
	wallet := h.publisher(c).Wallet()
	wallet.Disconnect()
	utils.SuccessResponse(c, wallet.Snapshot())
}

// POST /publish/copyrights/:id
func (h *PublishHandler) PublishCopyright(c *gin.Context) {
	h.start(c, models.EntityTypeTrack)
}

// POST /publish/transfers/:id
func (h *PublishHandler) PublishTransfer(c *gin.Context) {
	h.start(c, models.EntityTypeTransfer)
}

func (h *PublishHandler) start(c *gin.Context, kind models.EntityType) {
	p := h.publisher(c)
	if err := p.Start(c.Request.Context(), kind, c.Param("id")); err != nil {
		resource := "track"
		if kind == models.EntityTypeTransfer {
			resource = "transfer"
		}
		respondError(c, err, resource)
		return
	}

	c.JSON(http.StatusAccepted, utils.APIResponse{
		Success: true,
		Data:    p.Status(),
	})
}

// GET /publish/status
func (h *PublishHandler) Status(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	status := h.publisher(c).Status()

	body := gin.H{"status": status}
	switch {
	case status.State == services.PublishFailed:
		body["message"] = i18n.T(lang, i18n.KeyPublishFailed, status.Error)
	case status.SyncError != "":
		body["message"] = i18n.T(lang, i18n.KeyPublishBackendSyncFailed)
	case status.State == services.PublishConfirmed:
		body["message"] = i18n.T(lang, i18n.KeyPublishConfirmed)
	}
	utils.SuccessResponse(c, body)
}

// DELETE /publish
func (h *PublishHandler) Close(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	p := h.publisher(c)
	p.Close()

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPublishClosed),
		"status":  p.Status(),
	})
}
