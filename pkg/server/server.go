// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/bidder/pkg/analytics"
	"github.com/adxyz/bidder/pkg/bidder"
	"github.com/adxyz/bidder/pkg/exchange"
	"github.com/adxyz/bidder/pkg/log"
	"github.com/adxyz/bidder/pkg/metric"
)

// Server exposes one bidder engine over HTTP.
type Server struct {
	engine   *bidder.Engine
	recorder *analytics.Recorder
	metrics  *metric.Metrics
	log      log.Logger
}

// New wires a server around an engine. recorder may be nil.
func New(engine *bidder.Engine, metrics *metric.Metrics, recorder *analytics.Recorder, logger log.Logger) *Server {
	return &Server{
		engine:   engine,
		recorder: recorder,
		metrics:  metrics,
		log:      logger,
	}
}

// Router builds the gin router.
func (s *Server) Router(mode string) *gin.Engine {
	if mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	router.GET("/health", s.handleHealth)
	router.POST("/bid", s.handleBid)
	router.GET("/stats", s.handleStats)
	router.POST("/predict", s.handlePredict)
	router.POST("/reset", s.handleReset)
	router.GET("/analytics", s.handleAnalytics)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Gatherer(), promhttp.HandlerOpts{})))

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"bidder": s.engine.Strategy().ID,
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleBid(c *gin.Context) {
	var req exchange.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bid request"})
		return
	}

	resp, err := s.engine.HandleBidRequest(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, exchange.ErrMissingID) || errors.Is(err, exchange.ErrNoImpressions) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bid request"})
			return
		}
		s.log.Error("bid request failed", "request", req.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if resp == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Stats())
}

func (s *Server) handlePredict(c *gin.Context) {
	var req exchange.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Imp) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	type prediction struct {
		ImpID        string  `json:"impid"`
		PredictedCTR float64 `json:"predicted_ctr,omitempty"`
		CTRPercent   float64 `json:"ctr_percent,omitempty"`
		SuggestedBid float64 `json:"suggested_bid,omitempty"`
		Error        string  `json:"error,omitempty"`
	}

	predictions := make([]prediction, 0, len(req.Imp))
	for i := range req.Imp {
		imp := &req.Imp[i]
		q, err := s.engine.PredictOnly(&req, imp)
		if err != nil {
			predictions = append(predictions, prediction{ImpID: imp.ID, Error: err.Error()})
			continue
		}
		bid, _ := q.SuggestedBid.Float64()
		predictions = append(predictions, prediction{
			ImpID:        q.ImpID,
			PredictedCTR: q.PredictedCTR,
			CTRPercent:   q.PredictedCTR * 100,
			SuggestedBid: bid,
		})
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (s *Server) handleReset(c *gin.Context) {
	s.engine.ResetBudget()
	c.JSON(http.StatusOK, gin.H{
		"message":     "Budget reset successfully",
		"total_spent": 0.00,
		"bid_count":   0,
	})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	if s.recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics disabled"})
		return
	}
	summary, err := s.recorder.Summary()
	if err != nil {
		s.log.Error("analytics query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
