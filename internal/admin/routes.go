package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/cortex/internal/auth"
	"github.com/danmuck/cortex/internal/cortex"
	"github.com/danmuck/cortex/internal/journal"
	"github.com/danmuck/cortex/internal/modules"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type forwardRequest struct {
	Vector []int `json:"vector"`
}

type renderRequest struct {
	Telemetry map[string]any `json:"telemetry"`
}

type optimizeRequest struct {
	Gradients []float64 `json:"gradients"`
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		st := s.lifecycle.Status()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"core_id": st.CoreID,
			"version": st.Version,
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		st := s.lifecycle.Status()
		ready := st.State.Operational() && !st.ShuttingDown
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready": ready,
			"state": st.State,
		})
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.lifecycle.Status())
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	r.GET("/journal", func(c *gin.Context) {
		if s.journal == nil {
			c.JSON(http.StatusOK, gin.H{"entries": []journal.Entry{}})
			return
		}
		entries, err := s.journal.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	})

	r.GET("/modules", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"modules": s.modules.ListMetadata()})
	})

	var validator auth.Validator
	if strings.TrimSpace(s.cfg.Token) != "" {
		validator = auth.StaticToken{Token: s.cfg.Token}
	}
	control := r.Group("/", auth.RequireBearer(validator))

	control.POST("/modules/:id/forward", s.handleForward)
	control.POST("/modules/:id/render", s.handleRender)
	control.POST("/modules/:id/optimize", s.handleOptimize)

	control.POST("/lifecycle/escalate", func(c *gin.Context) {
		s.lifecycleAction(c, s.lifecycle.Escalate(c.Request.Context()))
	})
	control.POST("/lifecycle/stand-down", func(c *gin.Context) {
		s.lifecycleAction(c, s.lifecycle.StandDown(c.Request.Context()))
	})
}

func (s *Server) handleForward(c *gin.Context) {
	inf, err := s.modules.Inference(c.Param("id"))
	if err != nil {
		moduleError(c, err)
		return
	}
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := inf.ForwardPass(c.Request.Context(), req.Vector)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleRender(c *gin.Context) {
	r, err := s.modules.Renderer(c.Param("id"))
	if err != nil {
		moduleError(c, err)
		return
	}
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	frame, err := r.RenderFrame(c.Request.Context(), req.Telemetry)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", frame)
}

func (s *Server) handleOptimize(c *gin.Context) {
	opt, err := s.modules.Optimizer(c.Param("id"))
	if err != nil {
		moduleError(c, err)
		return
	}
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := opt.OptimizeWeights(c.Request.Context(), req.Gradients)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gradients": out})
}

func (s *Server) lifecycleAction(c *gin.Context, err error) {
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, cortex.ErrLifecycleOrder) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.lifecycle.Status().State})
}

func moduleError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, modules.ErrModuleNotFound):
		code = http.StatusNotFound
	case errors.Is(err, modules.ErrWrongKind):
		code = http.StatusMethodNotAllowed
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
