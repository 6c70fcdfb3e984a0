package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/kode4food/seqexec"
	"github.com/kode4food/seqexec/pkg/api"
)

const (
	healthOK     = "healthy"
	healthHalted = "halted"
)

func (s *Server) handleHealth(c *gin.Context) {
	res := api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  healthOK,
	}
	if s.engine.IsHalted() {
		res.Status = healthHalted
		res.Halted = true
		c.JSON(http.StatusServiceUnavailable, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
