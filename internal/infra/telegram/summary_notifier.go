package telegram

import (
	"context"

	"recurring_ledger/internal/app"
	domain "recurring_ledger/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// SummaryNotifier sends batch run summaries to the admin chat.
type SummaryNotifier struct {
	client      domain.Client
	adminChatID int64
	logger      *logrus.Entry
}

func NewSummaryNotifier(client domain.Client, adminChatID int64, baseLogger *logrus.Entry) *SummaryNotifier {
	return &SummaryNotifier{
		client:      client,
		adminChatID: adminChatID,
		logger:      baseLogger.WithField("component", "summary_notifier"),
	}
}

func (n *SummaryNotifier) NotifyBatchResult(ctx context.Context, result *app.BatchResult, runErr error) {
	text := FormatBatchResult(result, runErr)
	if err := n.client.SendMessage(n.adminChatID, text, nil); err != nil {
		n.logger.WithError(err).WithField("chat_id", n.adminChatID).Error("Failed to send batch summary")
		return
	}
	n.logger.WithField("chat_id", n.adminChatID).Debug("Batch summary sent")
}
