package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"HedgeRatio/internal/calculator"
	"HedgeRatio/internal/collector"
	"HedgeRatio/internal/hedge"
	"HedgeRatio/internal/metrics"
	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
	"HedgeRatio/internal/report"
)

// Calculator runs one hedge calculation.
type Calculator interface {
	Calculate(ctx context.Context, req hedge.Request) (*model.HedgeResult, error)
}

// Server exposes the calculator over HTTP.
type Server struct {
	calc     Calculator
	recorder recorder.Recorder
	metrics  *metrics.Metrics
}

// New creates a Server. rec and m may be nil.
func New(calc Calculator, rec recorder.Recorder, m *metrics.Metrics) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{calc: calc, recorder: rec, metrics: m}
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/hedge", s.hedge)
	v1.GET("/hedge/plot.svg", s.plot)
	v1.GET("/runs", s.runs)
	return r
}

func (s *Server) hedge(c *gin.Context) {
	res, ok := s.calculate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"spot_symbol":    res.SpotSymbol,
		"futures_symbol": res.FuturesSymbol,
		"start":          res.Start.Format(hedge.DateLayout),
		"end":            res.End.Format(hedge.DateLayout),
		"estimate":       res.Estimate,
		"contracts":      res.Contracts,
		"hedge_line":     report.HedgeLine(res),
		"recent":         res.Returns.Tail(report.PreviewRows),
		"returns":        res.Returns.Rows,
	})
}

func (s *Server) plot(c *gin.Context) {
	res, ok := s.calculate(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", report.ScatterSVG(res))
}

func (s *Server) runs(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.recorder.RecentRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []recorder.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// calculate parses the query, runs the calculation and writes the error
// response on failure.
func (s *Server) calculate(c *gin.Context) (*model.HedgeResult, bool) {
	req, err := parseRequest(c)
	if err == nil {
		var res *model.HedgeResult
		res, err = s.calc.Calculate(c.Request.Context(), req)
		if err == nil {
			return res, true
		}
	}
	c.JSON(statusFor(err), gin.H{"error": hedge.UserMessage(err)})
	return nil, false
}

func parseRequest(c *gin.Context) (hedge.Request, error) {
	req := hedge.Request{
		SpotSymbol:    c.DefaultQuery("spot", "PSX"),
		FuturesSymbol: c.DefaultQuery("futures", "CL=F"),
	}
	var err error
	if req.Start, err = hedge.ParseDate(c.DefaultQuery("start", "2020-01-01")); err != nil {
		return req, err
	}
	if req.End, err = hedge.ParseDate(c.DefaultQuery("end", "2025-10-01")); err != nil {
		return req, err
	}
	if req.Contract.PositionValue, err = hedge.ParseOptionalFloat("position_value", c.Query("position_value")); err != nil {
		return req, err
	}
	if req.Contract.FuturesPrice, err = hedge.ParseOptionalFloat("futures_price", c.Query("futures_price")); err != nil {
		return req, err
	}
	if req.Contract.ContractSize, err = hedge.ParseOptionalFloat("contract_size", c.Query("contract_size")); err != nil {
		return req, err
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, hedge.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrTickerNotFound):
		return http.StatusNotFound
	case errors.Is(err, calculator.ErrEmptyData),
		errors.Is(err, calculator.ErrDegenerateSeries),
		errors.Is(err, calculator.ErrInvalidContractParameters):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
