package handler

import (
	"time"

	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

// Submit handles POST /api/v1/transactions. A rejected transaction returns
// 422 with every violated invariant.
func (h *TransactionHandler) Submit(c *gin.Context) {
	var req dto.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	initiatedBy, err := uuid.Parse(req.InitiatedBy)
	if err != nil {
		response.Error(c, apperror.Validation("initiated_by must be a UUID"))
		return
	}
	memberID, err := parseOptionalUUID(req.MemberID)
	if err != nil {
		response.Error(c, apperror.Validation("member_id must be a UUID"))
		return
	}
	authorizedBy, err := parseOptionalUUID(req.AuthorizedBy)
	if err != nil {
		response.Error(c, apperror.Validation("authorized_by must be a UUID"))
		return
	}
	previousID, err := parseOptionalUUID(req.PreviousTransactionID)
	if err != nil {
		response.Error(c, apperror.Validation("previous_transaction_id must be a UUID"))
		return
	}

	txn, err := h.ledgerSvc.Submit(c.Request.Context(), ports.TransactionRequest{
		Type:                  domain.TransactionType(req.Type),
		SourceCurrency:        req.SourceCurrency,
		DestinationCurrency:   req.DestinationCurrency,
		MemberID:              memberID,
		SourceAmount:          req.SourceAmount,
		DestinationAmount:     req.DestinationAmount,
		InitiatedBy:           initiatedBy,
		AuthorizedBy:          authorizedBy,
		PreviousTransactionID: previousID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// Get handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("transaction id must be a UUID"))
		return
	}

	txn, err := h.ledgerSvc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toTransactionResponse(txn))
}

// ListForEntity handles GET /api/v1/ledger/entities/:kind/:id/transactions.
func (h *TransactionHandler) ListForEntity(c *gin.Context) {
	var kind domain.EntityKind
	switch c.Param("kind") {
	case "pool":
		kind = domain.EntityKindPool
	case "member":
		kind = domain.EntityKindMember
	default:
		response.Error(c, apperror.Validation("entity kind must be pool or member"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("entity id must be a UUID"))
		return
	}

	page, pageSize := pagination(c)
	txns, total, err := h.ledgerSvc.ListFor(c.Request.Context(), domain.EntityRef{Kind: kind, ID: id}, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, len(txns))
	for i := range txns {
		items[i] = toTransactionResponse(&txns[i])
	}
	response.OK(c, dto.PageResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// SystemValue handles GET /api/v1/ledger/value.
func (h *TransactionHandler) SystemValue(c *gin.Context) {
	total, err := h.ledgerSvc.SystemTotalValue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SystemValueResponse{
		ReferenceCurrency: domain.ReferenceCode,
		TotalValue:        total.String(),
	})
}

func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	entries := make([]dto.EventResponse, len(txn.Entries))
	for i, e := range txn.Entries {
		entries[i] = dto.EventResponse{
			ID:         e.ID.String(),
			Class:      string(e.Class),
			CurrencyID: e.CurrencyID.String(),
			Amount:     e.Amount,
			Rate:       e.Rate.String(),
			MemberID:   uuidString(e.MemberID),
		}
	}
	return dto.TransactionResponse{
		ID:                    txn.ID.String(),
		Type:                  string(txn.Type),
		SourceKind:            string(txn.Source.Kind),
		SourceID:              txn.Source.ID.String(),
		DestinationKind:       string(txn.Destination.Kind),
		DestinationID:         txn.Destination.ID.String(),
		InitiatedBy:           txn.InitiatedBy.String(),
		AuthorizedBy:          uuidString(txn.AuthorizedBy),
		PreviousTransactionID: uuidString(txn.PreviousTransactionID),
		Entries:               entries,
		CreatedAt:             txn.CreatedAt.Format(time.RFC3339),
	}
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
