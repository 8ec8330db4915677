package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custodial-ledger/internal/adapter/http/dto"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/internal/core/ports/mocks"
	"custodial-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Currency Handler Tests ---

func TestCurrencyRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewCurrencyHandler(mockRegistry)

	currencyID := uuid.New()
	mockRegistry.EXPECT().Register(gomock.Any(), ports.RegisterCurrencyRequest{
		Code:        "BTC",
		Name:        "Bitcoin",
		Crypto:      true,
		Subdivision: 8,
	}).Return(&domain.Currency{
		ID:          currencyID,
		Code:        "BTC",
		Name:        "Bitcoin",
		Slug:        "btc",
		Crypto:      true,
		Subdivision: 8,
		CreatedAt:   time.Now().UTC(),
	}, nil)

	body, _ := json.Marshal(dto.RegisterCurrencyRequest{
		Code: "BTC", Name: "Bitcoin", Crypto: true, Subdivision: 8,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/currencies", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, currencyID.String(), data["id"])
	assert.Equal(t, "BTC", data["code"])
	assert.Equal(t, float64(8), data["subdivision"])
}

func TestCurrencyRegister_BindingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewCurrencyHandler(mocks.NewMockRegistryService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/currencies", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrencyRegister_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewCurrencyHandler(mockRegistry)

	mockRegistry.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrDuplicateCurrencyCode("BTC"))

	body, _ := json.Marshal(dto.RegisterCurrencyRequest{Code: "BTC", Name: "Bitcoin", Crypto: true, Subdivision: 8})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/currencies", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VAL_002", resp["error_code"])
}

func TestCurrencyList_KindFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewCurrencyHandler(mockRegistry)

	mockRegistry.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, filter ports.CurrencyFilter) ([]domain.Currency, error) {
			require.NotNil(t, filter.Crypto)
			assert.True(t, *filter.Crypto)
			return []domain.Currency{{ID: uuid.New(), Code: "BTC", Crypto: true, Subdivision: 8}}, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/currencies?kind=crypto", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrencyList_BadKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewCurrencyHandler(mocks.NewMockRegistryService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/currencies?kind=shiny", nil)

	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrencyRemove_Referenced(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockRegistryService(ctrl)
	h := NewCurrencyHandler(mockRegistry)

	mockRegistry.EXPECT().Remove(gomock.Any(), "USD").Return(apperror.ErrCurrencyReferenced("USD"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/currencies/USD", nil)
	c.Params = gin.Params{{Key: "code", Value: "USD"}}

	h.Remove(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// --- Transaction Handler Tests ---

func TestTransactionSubmit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewTransactionHandler(mockLedger)

	memberID := uuid.New()
	currencyID := uuid.New()
	txnID := uuid.New()

	mockLedger.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.TransactionRequest) (*domain.Transaction, error) {
			assert.Equal(t, domain.TransactionTypeMemberDeposit, req.Type)
			assert.Equal(t, "USD", req.SourceCurrency)
			require.NotNil(t, req.MemberID)
			assert.Equal(t, memberID, *req.MemberID)
			return &domain.Transaction{
				ID:          txnID,
				Type:        req.Type,
				Source:      domain.PoolRef(currencyID),
				Destination: domain.MemberRef(memberID),
				InitiatedBy: req.InitiatedBy,
				Entries: []domain.Event{
					{ID: uuid.New(), Class: domain.EventClassAsset, CurrencyID: currencyID, Amount: 10000, Rate: decimal.RequireFromString("0.00002")},
					{ID: uuid.New(), Class: domain.EventClassLiability, CurrencyID: currencyID, Amount: 10000, Rate: decimal.RequireFromString("0.00002"), MemberID: &memberID},
				},
				CreatedAt: time.Now().UTC(),
			}, nil
		})

	memberStr := memberID.String()
	body, _ := json.Marshal(dto.SubmitTransactionRequest{
		Type:           "MemberDeposit",
		SourceCurrency: "USD",
		MemberID:       &memberStr,
		SourceAmount:   10000,
		InitiatedBy:    memberID.String(),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, txnID.String(), data["id"])
	assert.Len(t, data["entries"], 2)
}

func TestTransactionSubmit_RejectionLists_AllViolations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewTransactionHandler(mockLedger)

	rejection := &apperror.ValidationErrors{}
	rejection.Add(apperror.ErrValueMismatch())
	rejection.Add(apperror.ErrUnbalancedTransaction())
	mockLedger.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(nil, rejection)

	memberID := uuid.New().String()
	body, _ := json.Marshal(dto.SubmitTransactionRequest{
		Type:                "MemberExchange",
		SourceCurrency:      "USD",
		DestinationCurrency: "BTC",
		MemberID:            &memberID,
		SourceAmount:        10000,
		DestinationAmount:   300000,
		InitiatedBy:         memberID,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	errs := resp["errors"].([]interface{})
	require.Len(t, errs, 2)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "LED_002", first["error_code"])
}

func TestTransactionSubmit_BadUUID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockLedgerService(ctrl))

	body, _ := json.Marshal(dto.SubmitTransactionRequest{
		Type:           "MemberDeposit",
		SourceCurrency: "USD",
		SourceAmount:   10000,
		InitiatedBy:    "not-a-uuid",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionListForEntity_BadKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockLedgerService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/ledger/entities/warehouse/123/transactions", nil)
	c.Params = gin.Params{{Key: "kind", Value: "warehouse"}, {Key: "id", Value: uuid.New().String()}}

	h.ListForEntity(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerSystemValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewTransactionHandler(mockLedger)

	mockLedger.EXPECT().SystemTotalValue(gomock.Any()).Return(decimal.RequireFromString("2.7"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/ledger/value", nil)

	h.SystemValue(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "BTC", data["reference_currency"])
	assert.Equal(t, "2.7", data["total_value"])
}

// --- Member Handler Tests ---

func TestMemberBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewMemberHandler(mockMember, mockLedger)

	memberID := uuid.New()
	mockMember.EXPECT().GetByUsername(gomock.Any(), "satoshi").Return(&domain.Member{
		ID: memberID, Username: "satoshi", Slug: "satoshi",
	}, nil)
	mockLedger.EXPECT().Balance(gomock.Any(), memberID, "BTC").Return(decimal.RequireFromString("1.5"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/members/satoshi/balances/BTC", nil)
	c.Params = gin.Params{{Key: "username", Value: "satoshi"}, {Key: "code", Value: "BTC"}}

	h.Balance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "1.5", data["balance"])
}

func TestMemberGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMember := mocks.NewMockMemberService(ctrl)
	h := NewMemberHandler(mockMember, mocks.NewMockLedgerService(ctrl))

	mockMember.EXPECT().GetByUsername(gomock.Any(), "ghost").Return(nil, apperror.ErrNotFound("member"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/members/ghost", nil)
	c.Params = gin.Params{{Key: "username", Value: "ghost"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
