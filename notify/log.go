package notify

import (
	"context"
	"log/slog"

	clubAuth "github.com/MrEthical07/clubAuth"
)

// LogSender stands in for a mail provider during development. It logs the
// masked recipient and purpose and reports missing_config.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, d clubAuth.CodeDelivery) clubAuth.DeliveryResult {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "verification code not sent: no mail provider",
		slog.String("recipient", clubAuth.MaskEmail(d.Email)),
		slog.String("purpose", string(d.Purpose)),
	)
	return clubAuth.DeliveryResult{Reason: ReasonMissingConfig}
}
