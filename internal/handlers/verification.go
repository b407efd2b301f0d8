// internal/handlers/verification.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

// RecordVerifier looks up a contract call by transaction hash.
type RecordVerifier interface {
	VerifyRecord(hash string) (services.ChainRecord, bool)
}

type VerificationHandler struct {
	chain RecordVerifier
}

func NewVerificationHandler(chain RecordVerifier) *VerificationHandler {
	return &VerificationHandler{chain: chain}
}

// GET /verify/:hash
func (h *VerificationHandler) VerifyTransaction(c *gin.Context) {
	hash := strings.ToLower(strings.TrimSpace(c.Param("hash")))
	if h.chain == nil {
		utils.NotFoundResponse(c, "chain_record")
		return
	}

	record, ok := h.chain.VerifyRecord(hash)
	if !ok {
		utils.NotFoundResponse(c, "chain_record")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"verified": record.Confirmed,
		"record":   record,
	})
}
