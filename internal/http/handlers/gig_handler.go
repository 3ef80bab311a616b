package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/dto"
	"github.com/Derecoder4/Freelance-Fi/internal/http/handlers/common"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

type GigHandler struct {
	gigs *service.GigService
}

func NewGigHandler(gigs *service.GigService) *GigHandler {
	return &GigHandler{gigs: gigs}
}

// CreateGig POST /gigs
func (h *GigHandler) CreateGig(c *gin.Context) {
	actor, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.CreateGigRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	gig, err := h.gigs.CreateGig(c.Request.Context(), actor, service.CreateGigInput{
		Freelancer:  req.Freelancer,
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	// Сделка уже закоммичена: ответ строится из неё, без повторного чтения.
	common.RespondJSON(c, http.StatusCreated, dto.CreateGigResponse{ID: gig.ID, Gig: models.NewGigRecord(gig)})
}

// ListGigs GET /gigs?status=&role=&search=&limit=&offset=
func (h *GigHandler) ListGigs(c *gin.Context) {
	viewer, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	gigs, total, err := h.gigs.ListGigs(c.Request.Context(), viewer, service.ListGigsInput{
		Status: c.Query("status"),
		Role:   c.Query("role"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, dto.NewGigListResponse(gigs, total, limit, offset))
}

// ListGigIDs GET /gigs/ids
func (h *GigHandler) ListGigIDs(c *gin.Context) {
	ids, err := h.gigs.ListGigIDs(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, dto.GigIDsResponse{IDs: ids})
}

// GetGig GET /gigs/:id
func (h *GigHandler) GetGig(c *gin.Context) {
	id, err := common.ParseGigID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	gig, err := h.gigs.GetGig(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, dto.NewGigResponse(gig))
}

// ListTransfers GET /gigs/:id/transfers
func (h *GigHandler) ListTransfers(c *gin.Context) {
	id, err := common.ParseGigID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	transfers, err := h.gigs.ListTransfers(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, dto.TransfersResponse{Items: models.NewTransferRecords(transfers)})
}

// AcceptGig POST /gigs/:id/accept
func (h *GigHandler) AcceptGig(c *gin.Context) {
	h.runCommand(c, h.gigs.AcceptGig)
}

// ReleaseFunds POST /gigs/:id/release
func (h *GigHandler) ReleaseFunds(c *gin.Context) {
	h.runCommand(c, h.gigs.ReleaseFunds)
}

// Refund POST /gigs/:id/refund
func (h *GigHandler) Refund(c *gin.Context) {
	h.runCommand(c, h.gigs.Refund)
}

// DisputeGig POST /gigs/:id/dispute
func (h *GigHandler) DisputeGig(c *gin.Context) {
	h.runCommand(c, h.gigs.DisputeGig)
}

// ResolveDispute POST /gigs/:id/resolve
func (h *GigHandler) ResolveDispute(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	h.runCommand(c, func(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error) {
		return h.gigs.ResolveDispute(ctx, actor, id, req.Winner)
	})
}

type gigCommand func(ctx context.Context, actor valueobject.Address, id int64) (*entity.Gig, error)

func (h *GigHandler) runCommand(c *gin.Context, cmd gigCommand) {
	actor, err := common.CurrentAddress(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	id, err := common.ParseGigID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	gig, err := cmd(c.Request.Context(), actor, id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondOK(c, dto.NewGigResponse(gig))
}
