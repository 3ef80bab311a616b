package dto

import (
	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/models"
)

// CreateGigResponse - ответ на создание сделки.
type CreateGigResponse struct {
	ID  int64      `json:"id"`
	Gig models.Gig `json:"gig"`
}

// GigResponse - подтверждение команды: сделка после перехода.
type GigResponse struct {
	Gig models.Gig `json:"gig"`
}

// GigListResponse represents a paginated list of gigs
type GigListResponse struct {
	Items  []models.Gig `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type GigIDsResponse struct {
	IDs []int64 `json:"ids"`
}

type TransfersResponse struct {
	Items []models.Transfer `json:"items"`
}

type ArbiterResponse struct {
	Address       string `json:"address"`
	ServiceFeeBPS int64  `json:"service_fee_bps"`
}

func NewGigResponse(g *entity.Gig) GigResponse {
	return GigResponse{Gig: models.NewGigRecord(g)}
}

func NewGigListResponse(gigs []*entity.Gig, total, limit, offset int) GigListResponse {
	items := make([]models.Gig, 0, len(gigs))
	for _, g := range gigs {
		items = append(items, models.NewGigRecord(g))
	}
	return GigListResponse{Items: items, Total: total, Limit: limit, Offset: offset}
}
