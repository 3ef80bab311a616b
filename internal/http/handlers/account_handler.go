package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/dto"
	"github.com/Derecoder4/Freelance-Fi/internal/http/handlers/common"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

type AccountHandler struct {
	gigs *service.GigService
}

func NewAccountHandler(gigs *service.GigService) *AccountHandler {
	return &AccountHandler{gigs: gigs}
}

// GetBalance GET /accounts/me/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	addr, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	balance, err := h.gigs.GetBalance(c.Request.Context(), addr)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, models.NewAccountRecord(balance))
}

// ListTransfers GET /accounts/me/transfers
func (h *AccountHandler) ListTransfers(c *gin.Context) {
	addr, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	transfers, err := h.gigs.ListAccountTransfers(c.Request.Context(), addr, limit, offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, dto.TransfersResponse{Items: models.NewTransferRecords(transfers)})
}

// Deposit POST /accounts/deposit
func (h *AccountHandler) Deposit(c *gin.Context) {
	addr, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.DepositRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	transfer, err := h.gigs.Deposit(c.Request.Context(), addr, req.Amount)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusCreated, models.NewTransferRecord(*transfer))
}

// Arbiter GET /arbiter
func (h *AccountHandler) Arbiter(c *gin.Context) {
	common.RespondOK(c, dto.ArbiterResponse{
		Address:       h.gigs.Arbiter().String(),
		ServiceFeeBPS: valueobject.ServiceFeeBPS,
	})
}
