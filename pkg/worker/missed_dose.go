package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jwalitptl/medtrack-api/internal/email"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/messaging"
)

const missedDoseChannel = "dose_log.missed"

// MissedDoseAlerter listens for missed-dose events on the broker and mails
// the configured caregiver address.
type MissedDoseAlerter struct {
	broker    messaging.Broker
	schedRepo repository.ScheduleRepository
	medRepo   repository.MedicationRepository
	email     email.Service
	alertTo   string
	logger    *logger.Logger
}

func NewMissedDoseAlerter(
	broker messaging.Broker,
	schedRepo repository.ScheduleRepository,
	medRepo repository.MedicationRepository,
	emailSvc email.Service,
	alertTo string,
	logger *logger.Logger,
) *MissedDoseAlerter {
	return &MissedDoseAlerter{
		broker:    broker,
		schedRepo: schedRepo,
		medRepo:   medRepo,
		email:     emailSvc,
		alertTo:   alertTo,
		logger:    logger,
	}
}

func (a *MissedDoseAlerter) Start(ctx context.Context) error {
	msgs, err := a.broker.Subscribe(ctx, missedDoseChannel)
	if err != nil {
		return err
	}

	a.logger.Info("Missed dose alerter started")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Missed dose alerter shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := a.handle(ctx, msg); err != nil {
				a.logger.Error(err, "Failed to send missed dose alert")
			}
		}
	}
}

func (a *MissedDoseAlerter) handle(ctx context.Context, payload []byte) error {
	var log model.DoseLog
	if err := json.Unmarshal(payload, &log); err != nil {
		return err
	}

	sched, err := a.schedRepo.Get(ctx, log.MedicationScheduleID)
	if err != nil {
		return err
	}
	med, err := a.medRepo.Get(ctx, sched.MedicationID)
	if err != nil {
		return err
	}

	scheduledAt := "unknown"
	if log.ScheduledDatetime != nil {
		scheduledAt = log.ScheduledDatetime.Format(time.RFC1123)
	}

	return a.email.SendMissedDoseAlert(ctx, a.alertTo, med.PrescriptionName, scheduledAt)
}
