package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"orai-chat/errors"
	"orai-chat/mocks"
)

func Test_Notify_Forwards_To_The_Notifier(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Send(gomock.Any(), "alice", "approval", "request #42 approved").
		Return(nil).
		Times(1)

	service := NewNotificationService(slog.Default(), notifier)
	req.NoError(service.Notify(context.Background(), "alice", "approval", "request #42 approved"))
}

func Test_Notify_Surfaces_Delivery_Failures(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Send(gomock.Any(), "alice", "approval", gomock.Any()).
		Return(errors.ErrChannelClosed).
		Times(1)

	service := NewNotificationService(slog.Default(), notifier)
	err := service.Notify(context.Background(), "alice", "approval", "late")
	req.ErrorIs(err, errors.ErrChannelClosed)
}

func Test_ScheduleReminder_Uses_The_Schedule_Frame(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	notifier := mocks.NewMockNotifier(ctrl)
	notifier.EXPECT().
		Send(gomock.Any(), "bob", "schedule", "3 meetings today").
		Return(nil).
		Times(1)

	service := NewNotificationService(slog.Default(), notifier)
	req.NoError(service.ScheduleReminder(context.Background(), "bob", "3 meetings today"))
}
