package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CallHandler struct {
	log *zap.Logger
}

func NewCallHandler(log *zap.Logger) *CallHandler {
	return &CallHandler{log: log}
}

// Start allocates a call id. The client then opens the websocket at
// /api/call/:id/stream to begin sending audio.
func (h *CallHandler) Start(c *fiber.Ctx) error {
	callID := uuid.New().String()
	h.log.Info("Call started", zap.String("call_id", callID))
	return c.JSON(fiber.Map{
		"call_id":    callID,
		"stream_url": "/api/call/" + callID + "/stream",
	})
}
