package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	gonotify "github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/discord"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/repository"
)

// ErrDisabled is returned when notifications are switched off in configuration.
var ErrDisabled = errors.New("notifications are disabled")

// Notifier sends event announcements through the configured chat services
type Notifier struct {
	client   *gonotify.Notify
	enabled  bool
	events   repository.EventRepository
	regs     repository.RegistrationRepository
	location *time.Location
	logger   logrus.FieldLogger
}

// NewDiscordNotifier creates a notifier that posts to one Discord channel with a bot token.
// When notifications are disabled it returns a notifier that refuses to send.
func NewDiscordNotifier(
	cfg config.NotificationsConfig,
	events repository.EventRepository,
	regs repository.RegistrationRepository,
	loc *time.Location,
	logger logrus.FieldLogger,
) (*Notifier, error) {
	if !cfg.Enabled {
		return NewNotifier(nil, events, regs, loc, logger), nil
	}

	svc := discord.New()
	if err := svc.AuthenticateWithBotToken(cfg.DiscordBotToken); err != nil {
		return nil, fmt.Errorf("failed to authenticate discord bot: %w", err)
	}
	svc.AddReceivers(cfg.DiscordChannelID)

	return NewNotifier(svc, events, regs, loc, logger), nil
}

// NewNotifier wraps any notify service. A nil service disables sending.
func NewNotifier(
	svc gonotify.Notifier,
	events repository.EventRepository,
	regs repository.RegistrationRepository,
	loc *time.Location,
	logger logrus.FieldLogger,
) *Notifier {
	n := &Notifier{
		client:   gonotify.New(),
		enabled:  svc != nil,
		events:   events,
		regs:     regs,
		location: loc,
		logger:   logger.WithField("component", "notifier"),
	}
	if svc != nil {
		n.client.UseServices(svc)
	}
	return n
}

// Send delivers a built payload
func (n *Notifier) Send(ctx context.Context, p Payload) error {
	if !n.enabled {
		return ErrDisabled
	}

	if err := n.client.Send(ctx, p.Subject(), p.Message()); err != nil {
		metrics.RecordNotification(false)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	metrics.RecordNotification(true)
	n.logger.WithFields(logrus.Fields{
		"event":        p.EventName,
		"participants": len(p.Participants),
	}).Info("Sent event notification")
	return nil
}

// NotifyEvent loads an event and its registrations and announces it.
func (n *Notifier) NotifyEvent(ctx context.Context, externalID string) (*Payload, error) {
	if !n.enabled {
		return nil, ErrDisabled
	}

	event, err := n.events.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	regs, err := n.regs.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	payload := BuildPayload(event, regs, n.location)
	if err := n.Send(ctx, payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
