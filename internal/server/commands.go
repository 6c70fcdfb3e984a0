package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

var (
	ErrInvalidCommand  = errors.New("invalid command")
	ErrInternalCommand = errors.New("action events cannot be submitted")
)

func (s *Server) handleCommand(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(body) {
		s.commandError(c, ErrInvalidCommand)
		return
	}

	res := gjson.GetManyBytes(body, "type", "data")
	if res[0].Type != gjson.String {
		s.commandError(c, fmt.Errorf("%w: missing type", ErrInvalidCommand))
		return
	}

	typ := api.EventType(res[0].String())
	if api.IsActionEvent(typ) {
		s.commandError(c, fmt.Errorf("%w: %s", ErrInternalCommand, typ))
		return
	}

	ev, err := api.DecodeEvent(typ, json.RawMessage(res[1].Raw))
	if err != nil {
		s.commandError(c, err)
		return
	}

	ack, err := s.engine.Submit(ev)
	if err != nil {
		s.commandError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ack)
}

func (s *Server) commandError(c *gin.Context, err error) {
	status := commandStatus(err)
	c.JSON(status, api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrEngineHalted),
		errors.Is(err, engine.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidCommand),
		errors.Is(err, ErrInternalCommand),
		errors.Is(err, api.ErrUnknownEvent),
		errors.Is(err, api.ErrDecodeEvent),
		errors.Is(err, engine.ErrInvalidSequence):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
