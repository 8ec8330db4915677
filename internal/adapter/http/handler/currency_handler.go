package handler

import (
	"time"

	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// CurrencyHandler handles currency registry endpoints.
type CurrencyHandler struct {
	registrySvc ports.RegistryService
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(registrySvc ports.RegistryService) *CurrencyHandler {
	return &CurrencyHandler{registrySvc: registrySvc}
}

// Register handles POST /api/v1/currencies.
func (h *CurrencyHandler) Register(c *gin.Context) {
	var req dto.RegisterCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	currency, err := h.registrySvc.Register(c.Request.Context(), ports.RegisterCurrencyRequest{
		Code:        req.Code,
		Name:        req.Name,
		Crypto:      req.Crypto,
		Subdivision: req.Subdivision,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toCurrencyResponse(currency))
}

// List handles GET /api/v1/currencies with an optional ?kind=crypto|fiat
// filter.
func (h *CurrencyHandler) List(c *gin.Context) {
	var filter ports.CurrencyFilter
	switch c.Query("kind") {
	case "":
	case "crypto":
		crypto := true
		filter.Crypto = &crypto
	case "fiat":
		crypto := false
		filter.Crypto = &crypto
	default:
		response.Error(c, apperror.Validation("kind must be crypto or fiat"))
		return
	}

	currencies, err := h.registrySvc.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CurrencyResponse, len(currencies))
	for i := range currencies {
		items[i] = toCurrencyResponse(&currencies[i])
	}
	response.OK(c, items)
}

// Describe handles GET /api/v1/currencies/:code.
func (h *CurrencyHandler) Describe(c *gin.Context) {
	detail, err := h.registrySvc.Describe(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CurrencyDetailResponse{
		CurrencyResponse: toCurrencyResponse(&detail.Currency),
		Rate:             detail.Rate.String(),
		Assets:           detail.Assets.String(),
		Liability:        detail.Liability.String(),
		Equity:           detail.Equity.String(),
	})
}

// Remove handles DELETE /api/v1/currencies/:code.
func (h *CurrencyHandler) Remove(c *gin.Context) {
	if err := h.registrySvc.Remove(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": c.Param("code")})
}

func toCurrencyResponse(currency *domain.Currency) dto.CurrencyResponse {
	return dto.CurrencyResponse{
		ID:          currency.ID.String(),
		Code:        currency.Code,
		Name:        currency.Name,
		Slug:        currency.Slug,
		Crypto:      currency.Crypto,
		Subdivision: currency.Subdivision,
		CreatedAt:   currency.CreatedAt.Format(time.RFC3339),
	}
}
