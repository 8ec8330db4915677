package handler

import (
	"strconv"
	"time"

	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/apperror"
	"custodial-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// MemberHandler handles member administration endpoints.
type MemberHandler struct {
	memberSvc ports.MemberService
	ledgerSvc ports.LedgerService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberSvc ports.MemberService, ledgerSvc ports.LedgerService) *MemberHandler {
	return &MemberHandler{memberSvc: memberSvc, ledgerSvc: ledgerSvc}
}

// Create handles POST /api/v1/members.
func (h *MemberHandler) Create(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	member, err := h.memberSvc.Create(c.Request.Context(), ports.CreateMemberRequest{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMemberResponse(member))
}

// Get handles GET /api/v1/members/:username.
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.memberSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toMemberResponse(member))
}

// List handles GET /api/v1/members.
func (h *MemberHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	members, total, err := h.memberSvc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.MemberResponse, len(members))
	for i := range members {
		items[i] = toMemberResponse(&members[i])
	}
	response.OK(c, dto.PageResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Balance handles GET /api/v1/members/:username/balances/:code.
func (h *MemberHandler) Balance(c *gin.Context) {
	member, err := h.memberSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	code := c.Param("code")
	balance, err := h.ledgerSvc.Balance(c.Request.Context(), member.ID, code)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Username: member.Username,
		Currency: code,
		Balance:  balance.String(),
	})
}

func toMemberResponse(member *domain.Member) dto.MemberResponse {
	return dto.MemberResponse{
		ID:          member.ID.String(),
		Username:    member.Username,
		Slug:        member.Slug,
		Email:       member.Email,
		PhoneNumber: member.PhoneNumber,
		CountryCode: member.CountryCode,
		CreatedAt:   member.CreatedAt.Format(time.RFC3339),
	}
}

// pagination reads page / page_size query parameters with sane bounds.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
