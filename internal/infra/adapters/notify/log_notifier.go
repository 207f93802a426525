package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier persists each notification so the member's app can fetch it and
// mirrors it to the structured log. Push channels (email, SMS) can wrap this
// later; the reconciliation engine only sees the Notifier port.
type LogNotifier struct {
	logRepo repository.NotificationLogRepository
	log     *zerolog.Logger
}

func NewLogNotifier(logRepo repository.NotificationLogRepository, log *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logRepo: logRepo, log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, memberID, title, message string, kind model.NotificationKind) error {
	rec := &model.NotificationRecord{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	if err := n.logRepo.Save(ctx, repository.NoTX, rec); err != nil {
		return err
	}
	n.log.Info().
		Str("member_id", memberID).
		Str("kind", string(kind)).
		Str("title", title).
		Msg("notification dispatched")
	return nil
}
