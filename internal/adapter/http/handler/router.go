package handler

import (
	"custodial-ledger/internal/adapter/http/middleware"
	"custodial-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	RegistrySvc    ports.RegistryService
	LedgerSvc      ports.LedgerService
	MemberSvc      ports.MemberService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/healthz", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	currencyHandler := NewCurrencyHandler(deps.RegistrySvc)
	currencies := v1.Group("/currencies")
	{
		currencies.POST("", currencyHandler.Register)
		currencies.GET("", currencyHandler.List)
		currencies.GET("/:code", currencyHandler.Describe)
		currencies.DELETE("/:code", currencyHandler.Remove)
	}

	memberHandler := NewMemberHandler(deps.MemberSvc, deps.LedgerSvc)
	members := v1.Group("/members")
	{
		members.POST("", memberHandler.Create)
		members.GET("", memberHandler.List)
		members.GET("/:username", memberHandler.Get)
		members.GET("/:username/balances/:code", memberHandler.Balance)
	}

	transactionHandler := NewTransactionHandler(deps.LedgerSvc)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", transactionHandler.Submit)
		transactions.GET("/:id", transactionHandler.Get)
	}

	ledger := v1.Group("/ledger")
	{
		ledger.GET("/value", transactionHandler.SystemValue)
		ledger.GET("/entities/:kind/:id/transactions", transactionHandler.ListForEntity)
	}

	return r
}
