package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"lambda-events/pkg/events"
)

// Rule is a named schedule whose firings become ScheduledEvents.
type Rule struct {
	Name       string
	Expression string
	Detail     json.RawMessage
}

// Emitter receives each event the scheduler produces.
type Emitter func(ctx context.Context, event events.ScheduledEvent)

// Scheduler fires rules on their schedules, the way EventBridge triggers a
// function target.
type Scheduler struct {
	cron    *cron.Cron
	region  string
	account string
	emit    Emitter
	logger  logrus.FieldLogger
	now     func() time.Time

	mu    sync.Mutex
	rules map[string]cron.EntryID
}

// New creates a scheduler for rules in region and account.
func New(region, account string, emit Emitter, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithLocation(time.UTC)),
		region:  region,
		account: account,
		emit:    emit,
		logger:  logger,
		now:     time.Now,
		rules:   make(map[string]cron.EntryID),
	}
}

// Add registers rule. Rule names are unique.
func (s *Scheduler) Add(rule Rule) error {
	schedule, err := ParseExpression(rule.Expression)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.Name]; exists {
		return fmt.Errorf("rule %s already exists", rule.Name)
	}

	id := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.Fire(context.Background(), rule)
	}))
	s.rules[rule.Name] = id

	s.logger.WithFields(logrus.Fields{
		"rule":       rule.Name,
		"expression": rule.Expression,
	}).Info("Schedule registered")
	return nil
}

// Remove unregisters the named rule.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.rules[name]
	if ok {
		s.cron.Remove(id)
		delete(s.rules, name)
	}
	return ok
}

// Next returns the next firing time of the named rule, zero before Start.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.rules[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Fire emits one event for rule immediately.
func (s *Scheduler) Fire(ctx context.Context, rule Rule) {
	event := s.NewEvent(rule, s.now())

	s.logger.WithFields(logrus.Fields{
		"rule":     rule.Name,
		"event_id": event.ID,
	}).Debug("Schedule fired")

	s.emit(ctx, event)
}

// NewEvent builds the event EventBridge delivers when rule fires at t.
func (s *Scheduler) NewEvent(rule Rule, t time.Time) events.ScheduledEvent {
	detail := rule.Detail
	if len(detail) == 0 {
		detail = json.RawMessage(`{}`)
	}

	return events.ScheduledEvent{
		Account:    s.account,
		Region:     s.region,
		Detail:     detail,
		DetailType: events.ScheduledEventDetailType,
		Source:     events.ScheduledEventSource,
		Time:       t.UTC().Format(time.RFC3339),
		ID:         uuid.New().String(),
		Resources:  []string{RuleArn(s.region, s.account, rule.Name)},
	}
}

// RuleArn returns the ARN of an EventBridge rule on the default bus.
func RuleArn(region, account, name string) string {
	return fmt.Sprintf("arn:aws:events:%s:%s:rule/%s", region, account, name)
}
