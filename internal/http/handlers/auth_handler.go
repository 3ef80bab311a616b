package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/dto"
	"github.com/Derecoder4/Freelance-Fi/internal/http/handlers/common"
	"github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

// AuthHandler выдаёт токены для локальной разработки.
// Подтверждение владения кошельком происходит вне сервиса.
type AuthHandler struct {
	tokens    *service.TokenManager
	devTokens bool
}

// NewAuthHandler создаёт хэндлер. devTokens включает POST /auth/dev-token.
func NewAuthHandler(tokens *service.TokenManager, devTokens bool) *AuthHandler {
	return &AuthHandler{tokens: tokens, devTokens: devTokens}
}

// DevToken обрабатывает POST /auth/dev-token.
func (h *AuthHandler) DevToken(c *gin.Context) {
	if !h.devTokens {
		common.RespondError(c, apperror.ErrDisabledInProduction)
		return
	}

	var req dto.DevTokenRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	addr, err := valueobject.ParseAddress(req.Address)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	token, err := h.tokens.Issue(addr)
	if err != nil {
		common.RespondError(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен"))
		return
	}
	common.RespondOK(c, token)
}

// Me обрабатывает GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	addr, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, gin.H{"address": addr.String()})
}
