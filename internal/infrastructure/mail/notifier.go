package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/domain/invoice"
	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

// Notifier resolves recipients for a supplier and delivers the notification
// with bounded retries. Delivery is a critical step: an exhausted retry
// budget fails the job.
type Notifier struct {
	sender      Sender
	contacts    invoice.ContactDirectory
	defaultTo   []string
	alwaysCc    []string
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNotifier creates a notifier with routing and retry settings.
func NewNotifier(sender Sender, contacts invoice.ContactDirectory, cfg config.MailConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:      sender,
		contacts:    contacts,
		defaultTo:   cfg.DefaultTo,
		alwaysCc:    cfg.AlwaysCc,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      logger.Named("notifier"),
		sleep:       sleepCtx,
	}
}

// Notify sends msg to the supplier's contacts, falling back to the default
// recipients when the supplier has none on file. Cc addresses already
// present in To are dropped.
func (n *Notifier) Notify(ctx context.Context, supplierID string, msg *Message) error {
	to, cc, err := n.resolveRecipients(ctx, supplierID)
	if err != nil {
		return err
	}
	msg.To = to
	msg.Cc = cc

	return n.sendWithRetry(ctx, msg)
}

func (n *Notifier) resolveRecipients(ctx context.Context, supplierID string) (to, cc []string, err error) {
	contacts, err := n.contacts.ContactsFor(ctx, supplierID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve contacts for supplier %q: %w", supplierID, err)
	}

	to = invoice.FilterEmails(contacts.To)
	if len(to) == 0 {
		to = invoice.FilterEmails(n.defaultTo)
		if len(to) > 0 {
			n.logger.Warn("supplier has no contacts, using default recipients",
				zap.String("supplier_id", supplierID),
			)
		}
	}
	if len(to) == 0 {
		return nil, nil, invoice.ErrNoRecipients
	}

	seen := make(map[string]struct{}, len(to))
	for _, addr := range to {
		seen[strings.ToLower(addr)] = struct{}{}
	}
	for _, addr := range invoice.FilterEmails(append(append([]string{}, contacts.Cc...), n.alwaysCc...)) {
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cc = append(cc, addr)
	}
	return to, cc, nil
}

// sendWithRetry attempts delivery up to maxAttempts times, backing off
// exponentially with jitter between attempts.
func (n *Notifier) sendWithRetry(ctx context.Context, msg *Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = n.baseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		lastErr = n.sender.Send(ctx, msg)
		if lastErr == nil {
			if attempt > 1 {
				n.logger.Info("email delivered after retry",
					zap.Int("attempt", attempt),
					zap.String("subject", msg.Subject),
				)
			}
			return nil
		}

		n.logger.Warn("email delivery failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", n.maxAttempts),
			zap.String("subject", msg.Subject),
			zap.Error(lastErr),
		)

		if attempt == n.maxAttempts {
			break
		}
		if err := n.sleep(ctx, bo.NextBackOff()); err != nil {
			return err
		}
	}
	return fmt.Errorf("email delivery failed after %d attempts: %w", n.maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
