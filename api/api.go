package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	api_types "modelfolio/api-types"
	folio_errors "modelfolio/internal"
	"modelfolio/internal/observ"
	"modelfolio/internal/resolver"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func StartApi(port int, r resolver.Resolver, log zerolog.Logger) error {
	router := NewRouter(r, log)
	log.Info().Int("port", port).Msg("starting api")
	return router.Run(fmt.Sprintf(":%d", port))
}

func NewRouter(r resolver.Resolver, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(observ.Middleware())

	h := handler{resolver: r, log: log}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "welcome to modelfolio"})
	})
	router.GET("/metrics", gin.WrapH(observ.Handler()))

	router.POST("/portfolios", h.createPortfolio)
	router.GET("/portfolios", h.listPortfolios)
	router.GET("/portfolios/:id", h.getPortfolio)
	router.PATCH("/portfolios/:id", h.updatePortfolio)
	router.POST("/portfolios/:id", h.updatePortfolio)
	router.GET("/portfolios/:id/history", h.getHistory)
	router.POST("/portfolios/:id/value", h.logValue)

	router.POST("/valuations", h.logAllValues)
	router.POST("/valuations/dedup", h.deduplicate)

	return router
}

type handler struct {
	resolver resolver.Resolver
	log      zerolog.Logger
}

func (h handler) createPortfolio(c *gin.Context) {
	var req api_types.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, http.StatusBadRequest)
		return
	}
	resp, err := h.resolver.CreatePortfolio(c.Request.Context(), req)
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h handler) listPortfolios(c *gin.Context) {
	resp, err := h.resolver.ListPortfolios(c.Request.Context())
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h handler) getPortfolio(c *gin.Context) {
	resp, err := h.resolver.GetPortfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h handler) updatePortfolio(c *gin.Context) {
	var req api_types.UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, http.StatusBadRequest)
		return
	}
	resp, err := h.resolver.UpdatePortfolio(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h handler) getHistory(c *gin.Context) {
	baseline := false
	if s := c.Query("baseline"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			h.returnErrorJsonCode(fmt.Errorf("baseline must be true or false, received %q", s), c, http.StatusBadRequest)
			return
		}
		baseline = b
	}
	resp, err := h.resolver.GetHistory(c.Request.Context(), c.Param("id"), c.Query("period"), baseline)
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h handler) logValue(c *gin.Context) {
	req, ok := h.bindLogValueRequest(c)
	if !ok {
		return
	}
	resp, err := h.resolver.LogValue(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h handler) logAllValues(c *gin.Context) {
	req, ok := h.bindLogValueRequest(c)
	if !ok {
		return
	}
	resp, err := h.resolver.LogAllValues(c.Request.Context(), req)
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": resp})
}

func (h handler) deduplicate(c *gin.Context) {
	resp, err := h.resolver.Deduplicate(c.Request.Context())
	if err != nil {
		h.returnErrorJson(err, c)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// an empty body means live prices
func (h handler) bindLogValueRequest(c *gin.Context) (api_types.LogValueRequest, bool) {
	var req api_types.LogValueRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h handler) returnErrorJson(err error, c *gin.Context) {
	h.returnErrorJsonCode(err, c, statusFor(err))
}

func (h handler) returnErrorJsonCode(err error, c *gin.Context, code int) {
	event := h.log.Warn()
	if code >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Int("status", code).Str("path", c.FullPath()).Msg("request failed")

	body := gin.H{"error": err.Error()}
	var verr folio_errors.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	var fundsErr folio_errors.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		body["required"] = fundsErr.Required.InexactFloat64()
		body["available"] = fundsErr.Available.InexactFloat64()
		body["shortfall"] = fundsErr.Shortfall.InexactFloat64()
	}
	c.AbortWithStatusJSON(code, body)
}

func statusFor(err error) int {
	var (
		verr      folio_errors.ValidationError
		fundsErr  folio_errors.InsufficientFundsError
		overErr   folio_errors.OverAllocationError
		nfErr     folio_errors.NotFoundError
		conflict  folio_errors.ConflictError
		transient folio_errors.TransientStorageError
		priceErr  folio_errors.PriceUnavailableError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &fundsErr):
		return http.StatusPaymentRequired
	case errors.As(err, &overErr), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable
	case errors.As(err, &priceErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
