package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/models"
)

type captureService struct {
	subject string
	message string
	err     error
}

func (c *captureService) Send(ctx context.Context, subject, message string) error {
	c.subject = subject
	c.message = message
	return c.err
}

type stubEvents struct {
	event *models.Event
}

func (s *stubEvents) GetByExternalID(ctx context.Context, externalID string) (*models.Event, error) {
	if s.event == nil || s.event.ExternalID != externalID {
		return nil, models.ErrNotFound
	}
	return s.event, nil
}

func (s *stubEvents) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	return nil, nil
}

type stubRegistrations struct {
	regs []models.Registration
}

func (s *stubRegistrations) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	return s.regs, nil
}

func sampleEvent() *models.Event {
	temp := 24.0
	celsius := 1
	humidity := 40
	cfg := "Grand Prix"
	return &models.Event{
		ID:          uuid.New(),
		ExternalID:  "ir_419_5120_w2",
		Name:        "IMSA Endurance Series - Week 3",
		Track:       "Road Atlanta",
		TrackConfig: &cfg,
		StartTime:   time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 3, 14, 20, 14, 0, 0, time.UTC),
		Weather:     models.Weather{Temperature: &temp, TempUnits: &celsius, Humidity: &humidity},
		CarClasses: []models.CarClass{
			{ExternalID: 4029, Name: "GTP Class", ShortName: "GTP"},
			{ExternalID: 4074, Name: "GT3 Class"},
		},
	}
}

func registrations() []models.Registration {
	discordID := "998877"
	alex := &models.User{ID: uuid.New(), Name: "Alex", DiscordID: &discordID}
	blair := &models.User{ID: uuid.New(), Name: "Blair"}
	return []models.Registration{
		{ID: uuid.New(), UserID: alex.ID, RaceID: uuid.New(), User: alex},
		{ID: uuid.New(), UserID: blair.ID, RaceID: uuid.New(), User: blair},
		{ID: uuid.New(), UserID: alex.ID, RaceID: uuid.New(), User: alex},
		{ID: uuid.New(), UserID: uuid.New(), RaceID: uuid.New()},
	}
}

func TestBuildPayload(t *testing.T) {
	p := BuildPayload(sampleEvent(), registrations(), nil)

	assert.Equal(t, "IMSA Endurance Series - Week 3", p.EventName)
	assert.Equal(t, []string{"GTP", "GT3 Class"}, p.CarClasses)
	assert.Equal(t, "24°C, 40% humidity", p.Weather)
	require.Len(t, p.Participants, 2)
	assert.Equal(t, "Alex", p.Participants[0].Name)
	require.NotNil(t, p.Participants[0].DiscordID)
	assert.Equal(t, "Blair", p.Participants[1].Name)
	assert.Nil(t, p.Participants[1].DiscordID)
}

func TestPayloadMessage(t *testing.T) {
	p := BuildPayload(sampleEvent(), registrations(), time.UTC)
	msg := p.Message()

	assert.Contains(t, msg, "Track: Road Atlanta (Grand Prix)")
	assert.Contains(t, msg, "Start: Sat 14 Mar 14:00 UTC")
	assert.Contains(t, msg, "End: Sat 14 Mar 20:14 UTC")
	assert.Contains(t, msg, "Weather: 24°C, 40% humidity")
	assert.Contains(t, msg, "Classes: GTP, GT3 Class")
	assert.Contains(t, msg, "Drivers (2): Alex (<@998877>), Blair")
}

func TestPayloadMessage_NoParticipants(t *testing.T) {
	ev := sampleEvent()
	ev.Weather = models.Weather{}
	p := BuildPayload(ev, nil, nil)

	assert.Empty(t, p.Weather)
	assert.NotContains(t, p.Message(), "Weather:")
	assert.Contains(t, p.Message(), "Drivers: none registered yet")
}

func TestNotifier_NotifyEvent(t *testing.T) {
	svc := &captureService{}
	ev := sampleEvent()
	n := NewNotifier(svc, &stubEvents{event: ev}, &stubRegistrations{regs: registrations()}, time.UTC, logger.Discard())

	payload, err := n.NotifyEvent(context.Background(), ev.ExternalID)
	require.NoError(t, err)
	require.NotNil(t, payload)

	assert.Equal(t, ev.Name, svc.subject)
	assert.Contains(t, svc.message, "Drivers (2)")
}

func TestNotifier_NotifyEventUnknown(t *testing.T) {
	n := NewNotifier(&captureService{}, &stubEvents{}, &stubRegistrations{}, time.UTC, logger.Discard())

	_, err := n.NotifyEvent(context.Background(), "ir_0_0_w0")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNotifier_SendFailure(t *testing.T) {
	svc := &captureService{err: errors.New("channel not found")}
	n := NewNotifier(svc, &stubEvents{}, &stubRegistrations{}, time.UTC, logger.Discard())

	err := n.Send(context.Background(), BuildPayload(sampleEvent(), nil, nil))
	assert.Error(t, err)
}

func TestNewDiscordNotifier_Disabled(t *testing.T) {
	n, err := NewDiscordNotifier(config.NotificationsConfig{}, &stubEvents{}, &stubRegistrations{}, nil, logger.Discard())
	require.NoError(t, err)

	_, err = n.NotifyEvent(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, n.Send(context.Background(), Payload{}), ErrDisabled)
}
