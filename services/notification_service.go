package services

import (
	"context"
	"log/slog"

	"orai-chat/contract"
)

// NotificationService is the out-of-band push path: producers outside chat
// (a daily schedule job, an approval workflow) reach a single user's
// channel through the registry's narrow push API. It deliberately knows
// nothing about the message store or the broadcast router.
type NotificationService struct {
	log      *slog.Logger
	notifier contract.Notifier
}

func NewNotificationService(log *slog.Logger, notifier contract.Notifier) *NotificationService {
	return &NotificationService{log: log, notifier: notifier}
}

// Notify pushes one named frame to one user. Delivery is best-effort and
// same-instance only; a user connected elsewhere simply re-fetches.
func (s *NotificationService) Notify(ctx context.Context, userID, name string, payload any) error {
	if err := s.notifier.Send(ctx, userID, name, payload); err != nil {
		s.log.Warn("Out-of-band notification failed", "user", userID, "event", name, "error", err)
		return err
	}
	return nil
}

// ScheduleReminder pushes the daily-schedule alert frame.
func (s *NotificationService) ScheduleReminder(ctx context.Context, userID, summary string) error {
	return s.Notify(ctx, userID, "schedule", summary)
}
