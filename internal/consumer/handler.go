// Package consumer persists queued names, one row per delivered message.
package consumer

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ricirt/hello-game/internal/domain"
	"github.com/ricirt/hello-game/internal/repository"
)

// Handler decodes one delivery and writes it through a dedicated session.
// A returned error means the delivery was not persisted; errors wrapping
// domain.ErrMalformedMessage will fail again on every redelivery.
type Handler struct {
	sessions repository.SessionFactory
	logger   *zap.Logger
}

func NewHandler(sessions repository.SessionFactory, logger *zap.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// Handle stores the name carried by data. Duplicate deliveries produce
// duplicate rows. The session is closed on every path before Handle returns.
func (h *Handler) Handle(ctx context.Context, data []byte, meta domain.DeliveryMetadata) (*domain.Submission, error) {
	log := h.logger.With(
		zap.String("message_id", meta.MessageID),
		zap.Int("attempt", meta.Attempt),
	)

	name, err := decode(data)
	if err != nil {
		return nil, err
	}
	log.Debug("decoded message", zap.String("name", name))

	sess, err := h.sessions.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("failed to close database session", zap.Error(cerr))
		}
	}()

	sub, err := sess.InsertSubmission(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	log.Info("submission stored", zap.String("name", sub.Name), zap.Int64("id", sub.ID))
	return sub, nil
}

// decode turns the raw payload into a normalized, storable name.
func decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", domain.ErrMalformedMessage)
	}
	name, err := domain.ValidateName(string(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	return name, nil
}
