package dto

// CreateGigRequest - тело POST /gigs. Сумма в минимальных единицах токена.
type CreateGigRequest struct {
	Freelancer  string `json:"freelancer" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
}

// ResolveDisputeRequest - тело POST /gigs/:id/resolve. Адрес победителя проверяет сервис.
type ResolveDisputeRequest struct {
	Winner string `json:"winner"`
}

// DepositRequest - тело POST /accounts/deposit.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// DevTokenRequest - тело POST /auth/dev-token.
type DevTokenRequest struct {
	Address string `json:"address" binding:"required"`
}
