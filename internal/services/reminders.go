package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"go.uber.org/zap"
)

const (
	defaultTelegramAPIBase = "https://api.telegram.org"
	maxTrackedReminderKeys = 500
	reminderHTTPTimeout    = 8 * time.Second
	reminderLookbackMonths = 14
)

type ReminderOwnerStore interface {
	ListOwners(ctx context.Context) ([]models.User, error)
}

type ReminderLogStore interface {
	ListByUserRange(ctx context.Context, userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyLog, error)
}

type ReminderConfig struct {
	BotToken           string
	ChatID             string
	PeriodReminderDays int
	NotifyFertility    bool
	Interval           time.Duration
	APIBase            string
}

type ReminderService struct {
	owners   ReminderOwnerStore
	logs     ReminderLogStore
	config   ReminderConfig
	location *time.Location
	logger   *zap.Logger
	client   *http.Client
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
	done chan struct{}
}

func NewReminderService(owners ReminderOwnerStore, logs ReminderLogStore, config ReminderConfig, location *time.Location, logger *zap.Logger) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if strings.TrimSpace(config.APIBase) == "" {
		config.APIBase = defaultTelegramAPIBase
	}
	return &ReminderService{
		owners:   owners,
		logs:     logs,
		config:   config,
		location: location,
		logger:   logger.Named("reminders"),
		client:   &http.Client{Timeout: reminderHTTPTimeout},
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

func (service *ReminderService) Enabled() bool {
	return service.config.BotToken != "" && service.config.ChatID != ""
}

// Start scans owners once immediately and then on every interval until ctx is cancelled.
func (service *ReminderService) Start(ctx context.Context) {
	if !service.Enabled() {
		service.logger.Info("telegram reminders disabled")
		return
	}

	service.done = make(chan struct{})
	ticker := time.NewTicker(service.config.Interval)
	go func() {
		defer close(service.done)
		defer ticker.Stop()

		service.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.RunOnce(ctx)
			}
		}
	}()
}

// Wait blocks until the worker started by Start has exited.
func (service *ReminderService) Wait() {
	if service.done != nil {
		<-service.done
	}
}

func (service *ReminderService) RunOnce(ctx context.Context) {
	owners, err := service.owners.ListOwners(ctx)
	if err != nil {
		service.logger.Error("fetch owners failed", zap.Error(err))
		return
	}

	today := DateAtLocation(service.now(), service.location)
	from, _ := storageDayRange(today.AddDate(0, -reminderLookbackMonths, 0))
	_, to := storageDayRange(today)

	for _, owner := range owners {
		if ctx.Err() != nil {
			return
		}
		logs, err := service.logs.ListByUserRange(ctx, owner.ID, &from, &to)
		if err != nil {
			service.logger.Error("fetch logs failed", zap.Uint("user_id", owner.ID), zap.Error(err))
			continue
		}

		info := ComputeCycleInfo(owner.Profile(), logs, today)
		for _, message := range service.reminderMessages(owner.ID, info, today) {
			if err := service.sendTelegram(ctx, message.text); err != nil {
				service.logger.Warn("send reminder failed", zap.Uint("user_id", owner.ID), zap.Error(err))
				continue
			}
			service.markSent(message.key, today)
		}
	}
}

type reminderMessage struct {
	key  string
	text string
}

func (service *ReminderService) reminderMessages(userID uint, info *CycleInfo, today time.Time) []reminderMessage {
	if info == nil || info.DaysUntilNext == nil {
		return nil
	}

	messages := make([]reminderMessage, 0, 2)
	periodKey := fmt.Sprintf("period:%d:%s", userID, DayKey(today))
	if *info.DaysUntilNext == service.config.PeriodReminderDays && !service.alreadySent(periodKey, today) {
		messages = append(messages, reminderMessage{
			key: periodKey,
			text: fmt.Sprintf("Cyclecast reminder: your predicted period starts in %d day(s) on %s.",
				service.config.PeriodReminderDays,
				info.NextPeriodDate.Format("Jan 2"),
			),
		})
	}
	fertilityKey := fmt.Sprintf("fertility:%d:%s", userID, DayKey(today))
	if service.config.NotifyFertility && info.FertileWindowStart != nil && DaysBetween(today, *info.FertileWindowStart) == 0 &&
		!service.alreadySent(fertilityKey, today) {
		messages = append(messages, reminderMessage{
			key:  fertilityKey,
			text: fmt.Sprintf("Cyclecast reminder: your fertile window starts today (%s).", info.FertileWindowStart.Format("Jan 2")),
		})
	}
	return messages
}

func (service *ReminderService) alreadySent(key string, today time.Time) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	sentOn, ok := service.sent[key]
	return ok && DaysBetween(sentOn, today) == 0
}

// markSent records a delivered reminder. Failed sends are not recorded so the next tick
// retries them.
func (service *ReminderService) markSent(key string, today time.Time) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if len(service.sent) >= maxTrackedReminderKeys {
		service.sent = make(map[string]time.Time)
	}
	service.sent[key] = today
}

func (service *ReminderService) sendTelegram(ctx context.Context, message string) error {
	values := url.Values{}
	values.Set("chat_id", service.config.ChatID)
	values.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(service.config.APIBase, "/"), service.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := service.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
