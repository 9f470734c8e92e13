package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/carttalk/carttalk-server/internal/domain"
	"github.com/carttalk/carttalk-server/internal/observability/telemetry"
	"github.com/carttalk/carttalk-server/internal/ports"
)

// CommandConfirmOrder is the one command the model may issue today. Unknown
// commands are passed through in the turn result and otherwise ignored.
const CommandConfirmOrder = "CONFIRM_ORDER"

const audioMimeType = "audio/webm"

const systemInstruction = `You are CartTalk, a bilingual grocery assistant (English and Malayalam).
Your top priority is to AUTO-DETECT the user's language and respond in the SAME language.

INSTRUCTIONS:
1. Listen to the audio.
2. EXTRACT what the user said into a line starting with "TRANSCRIPT: ".
3. Thinking Process: Decide response based on inventory and user intent.
4. GENERATE your response for the user into a line starting with "RESPONSE: ".
5. If the user speaks English, reply in English.
6. If the user speaks Malayalam, reply in Malayalam.
7. Manage the shopping cart based on user requests (prices are in INR). Reference products by the IDs given in the inventory.
8. Keep responses short (under 2 sentences).
9. CHECKOUT PHASE: After the user confirms the order or asks for the bill, YOU MUST ASK for their NAME and DELIVERY ADDRESS.
10. SAVING DATA: As the user provides details, output a separate line: "DATA: {'name': '...', 'address': '...', 'cart': [{'id': 1, 'qty': 2, 'price': 40.0}]}".
11. CONFIRMATION: Once you have Name and Address, output "COMMAND: CONFIRM_ORDER" to save it.
12. CLOSING: After successful order confirmation, say a natural "Thank you" message in the user's language.

Inventory:
`

const greetingInstruction = "\n\nSPECIAL INSTRUCTION: This is the first interaction. You MUST greet the user with 'Welcome to CartTalk! How can I help you?' (or its Malayalam equivalent if the user speaks Malayalam)."

// Service runs the per-turn pipeline: prompt construction, model invocation,
// section extraction, tolerant data decoding, session merge, sanitization and
// - on CONFIRM_ORDER - the order commit. Extraction and decode failures are
// absorbed here; only model and store errors abort a turn.
type Service struct {
	model     ports.ModelClient
	inventory ports.InventoryService
	orders    ports.OrderService
	sessions  *SessionManager
	extractor *Extractor
	decoder   *Decoder
	breaker   *gobreaker.CircuitBreaker
	log       *zap.Logger
}

func NewService(
	model ports.ModelClient,
	inventory ports.InventoryService,
	orders ports.OrderService,
	sessions *SessionManager,
	log *zap.Logger,
) ports.ConversationService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Model circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Service{
		model:     model,
		inventory: inventory,
		orders:    orders,
		sessions:  sessions,
		extractor: NewExtractor(),
		decoder:   NewDecoder(log),
		breaker:   breaker,
		log:       log,
	}
}

func (s *Service) ProcessTurn(ctx context.Context, callID string, audio []byte) (*domain.TurnResult, error) {
	invContext, err := s.inventory.Context(ctx)
	if err != nil {
		telemetry.TurnsTotal.WithLabelValues("store_error").Inc()
		return nil, err
	}

	prompt := s.buildPrompt(callID, invContext)

	start := time.Now()
	raw, err := s.breaker.Execute(func() (interface{}, error) {
		return s.model.GenerateTurn(ctx, prompt, audio, audioMimeType)
	})
	telemetry.ModelLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.TurnsTotal.WithLabelValues("model_error").Inc()
		return nil, err
	}
	rawText := raw.(string)

	turn, dataText := s.extractor.Extract(rawText)
	if dataText != "" {
		if fields, ok := s.decoder.Decode(dataText); ok {
			turn.Data = fields
		} else {
			telemetry.DecodeFailuresTotal.Inc()
		}
	}

	session := s.sessions.Merge(callID, turn)

	language := detectLanguage(turn.ResponseText)
	result := &domain.TurnResult{
		Transcript:   turn.Transcript,
		ResponseText: Sanitize(turn.ResponseText),
		Language:     language,
		Command:      turn.Command,
	}

	if turn.Command == CommandConfirmOrder {
		commit, err := s.orders.Commit(ctx, session, language)
		if err != nil {
			telemetry.TurnsTotal.WithLabelValues("store_error").Inc()
			return nil, err
		}
		result.Order = commit
		s.log.Info("Order confirmed from call",
			zap.String("call_id", callID),
			zap.Int("order_id", commit.OrderID),
			zap.Int("committed", len(commit.CommittedLines)),
			zap.Int("skipped", len(commit.SkippedLines)),
		)
	}

	telemetry.TurnsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *Service) buildPrompt(callID, invContext string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString(invContext)
	if s.sessions.IsFirstTurn(callID) {
		b.WriteString(greetingInstruction)
	}
	b.WriteString("\n\nCONVERSATION HISTORY:\n")
	b.WriteString(s.sessions.HistoryText(callID))
	b.WriteString("\n\nCURRENT AUDIO INPUT:")
	return b.String()
}

// detectLanguage picks the TTS language from the reply text: any codepoint in
// the Malayalam block selects "ml", everything else is "en".
func detectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0D00 && r <= 0x0D7F {
			return "ml"
		}
	}
	return "en"
}
