package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	models "SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
	"SwapGate/internal/usecase"
	"SwapGate/internal/validation"
	xhttp "SwapGate/pkg/http"
	xlogger "SwapGate/pkg/logger"
)

// GatewayHandler implements Echo-based HTTP handlers following Clean Architecture.
type GatewayHandler struct {
	logger  *xlogger.Logger
	quotes  *usecase.QuoteValidator
	plans   *usecase.PlanReleaser
	audit   *usecase.AuditQuery
	catalog *validation.Catalog
}

func NewGatewayHandler(
	logger *xlogger.Logger,
	quotes *usecase.QuoteValidator,
	plans *usecase.PlanReleaser,
	audit *usecase.AuditQuery,
	catalog *validation.Catalog,
) *GatewayHandler {
	return &GatewayHandler{logger: logger, quotes: quotes, plans: plans, audit: audit, catalog: catalog}
}

func (h *GatewayHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/quotes/validate", h.ValidateQuote)
	g.POST("/plans/release", h.ReleasePlan)
	g.GET("/threats", h.Threats)
	g.GET("/audit/decisions", h.AuditDecisions)
	e.GET("/health", h.Health)
}

type quoteDecisionResponse struct {
	QuoteID string `json:"quote_id"`
	models.Decision
}

func (h *GatewayHandler) ValidateQuote(c echo.Context) error {
	req := &models.QuoteValidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q, err := req.ToQuote(time.Now().UTC())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid quote: %v", err))
	}

	d := h.quotes.Validate(c.Request().Context(), q, req.SkipValidation)
	return xhttp.SuccessResponse(c, quoteDecisionResponse{QuoteID: q.ID, Decision: d})
}

type planReleaseResponse struct {
	PlanID string                `json:"plan_id"`
	Proofs []models.CustodyProof `json:"proofs,omitempty"`
	models.Decision
}

func (h *GatewayHandler) ReleasePlan(c echo.Context) error {
	req := &models.PlanReleaseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	q, err := req.Quote.ToQuote(now)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid quote: %v", err))
	}
	balance, err := decimal.NewFromString(req.BalanceBefore)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid balance_before: %v", err))
	}

	planID := req.PlanID
	if planID == "" {
		planID = uuid.NewString()
	}
	plan := models.TransactionPlan{
		ID:          planID,
		Quote:       q,
		UserAddress: req.UserAddress,
		Route:       req.Route,
		CreatedAt:   now,
	}
	for _, p := range req.Proofs {
		plan.Proofs = append(plan.Proofs, p.ToProof())
	}

	// Plans arriving without evidence get the standard proofs issued here.
	issueProofs := len(plan.Proofs) == 0
	plan, d := h.plans.Release(c.Request().Context(), plan, balance, issueProofs)
	return xhttp.SuccessResponse(c, planReleaseResponse{PlanID: plan.ID, Proofs: plan.Proofs, Decision: d})
}

func (h *GatewayHandler) Threats(c echo.Context) error {
	codes := h.catalog.AllCodes()
	rows := make([]validation.ThreatPattern, 0, len(codes))
	for _, code := range codes {
		if p, ok := h.catalog.Lookup(code); ok {
			rows = append(rows, p)
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *GatewayHandler) AuditDecisions(c echo.Context) error {
	req := &models.AuditDecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	lb := domrepo.NormalizeLookback(req.Lookback)
	to := xhttp.ParseTimeDefault(req.To, time.Now().UTC())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-lb.Duration()))

	recs, err := h.audit.DecisionsBetween(c.Request().Context(), req.Source, from, to, req.Limit)
	if err != nil {
		h.logger.Error("audit query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *GatewayHandler) Health(c echo.Context) error {
	if err := h.audit.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
