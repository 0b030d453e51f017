package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chat_practice_service/internal/repository"
	"chat_practice_service/pkg/kafka"
	"chat_practice_service/pkg/logger"
)

const reminderTopic = "assignment-reminders"

// ReminderWorker periodically publishes reminder events for assignments
// approaching their due date that still have unfinished submissions.
type ReminderWorker struct {
	assignmentRepo *repository.AssignmentRepository
	kafkaProducer  *kafka.Producer
	logger         *logger.Logger
	interval       time.Duration
	window         time.Duration
}

func NewReminderWorker(
	assignmentRepo *repository.AssignmentRepository,
	kafkaProducer *kafka.Producer,
	log *logger.Logger,
	interval, window time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		assignmentRepo: assignmentRepo,
		kafkaProducer:  kafkaProducer,
		logger:         log,
		interval:       interval,
		window:         window,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "reminder worker stopped")
			return
		case <-ticker.C:
			w.processReminders(ctx)
		}
	}
}

func (w *ReminderWorker) processReminders(ctx context.Context) {
	assignments, err := w.assignmentRepo.FindAssignmentsDueSoon(ctx, w.window)
	if err != nil {
		w.logger.Error(ctx, "failed to get assignments due soon", zap.Error(err))
		return
	}

	for _, assignment := range assignments {
		message := map[string]interface{}{
			"assignment_id": assignment.ID,
			"course_id":     assignment.CourseID,
			"title":         assignment.Title,
			"due_at":        assignment.DueAt,
		}

		if err := w.kafkaProducer.Send(ctx, reminderTopic, message); err != nil {
			w.logger.Error(ctx, "failed to send reminder",
				zap.String("assignment_id", assignment.ID.String()),
				zap.Error(err),
			)
			continue
		}

		w.logger.Info(ctx, "sent assignment reminder", zap.String("assignment_id", assignment.ID.String()))
	}
}
