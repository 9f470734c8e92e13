package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/ports"
)

// CallStreamHandler owns the per-call websocket. Each connection carries one
// call: the client sends binary audio chunks, the server replies with one
// JSON turn result per chunk. A failed turn is reported on the socket and
// the call continues; only transport errors end the stream.
type CallStreamHandler struct {
	conversation ports.ConversationService
	log          *zap.Logger
}

func NewCallStreamHandler(conversation ports.ConversationService, log *zap.Logger) *CallStreamHandler {
	return &CallStreamHandler{
		conversation: conversation,
		log:          log,
	}
}

func (h *CallStreamHandler) HandleCallStream(c *websocket.Conn) {
	callID := c.Params("id")
	if callID == "" {
		h.log.Warn("Call stream opened without call id")
		return
	}

	h.log.Info("Call stream opened", zap.String("call_id", callID))
	defer h.log.Info("Call stream closed", zap.String("call_id", callID))

	ctx := context.Background()

	for {
		messageType, audio, err := c.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage || len(audio) == 0 {
			continue
		}

		result, err := h.conversation.ProcessTurn(ctx, callID, audio)
		if err != nil {
			h.log.Error("Turn failed",
				zap.String("call_id", callID),
				zap.Error(err),
			)
			h.writeJSON(c, map[string]any{"error": "turn failed, please repeat"})
			continue
		}

		h.writeJSON(c, result)
	}
}

func (h *CallStreamHandler) writeJSON(c *websocket.Conn, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.Error("Failed to marshal stream payload", zap.Error(err))
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.log.Error("Failed to write stream payload", zap.Error(err))
	}
}

// SetupCallRoutes wires the websocket upgrade path for call streams.
func SetupCallRoutes(app *fiber.App, handler *CallStreamHandler) {
	app.Use("/api/call/:id/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/api/call/:id/stream", websocket.New(handler.HandleCallStream))
}
