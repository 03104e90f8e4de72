package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"formbase/internal/pubsub"
	"formbase/pkg/model"
)

// Event is the payload published for each matched rule.
type Event struct {
	Type     string          `json:"type"`
	RuleID   string          `json:"ruleId"`
	Channel  string          `json:"channel"`
	Response *model.Response `json:"response"`
}

// Dispatcher evaluates rules against submitted responses and publishes
// an Event per match. It satisfies the query engine's Notifier
// contract: evaluation failures are logged, never surfaced to the
// submission path.
type Dispatcher struct {
	evaluator Evaluator
	publisher pubsub.Publisher
	logger    *slog.Logger

	mu    sync.RWMutex
	rules []Rule
}

func NewDispatcher(evaluator Evaluator, publisher pubsub.Publisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		evaluator: evaluator,
		publisher: publisher,
		logger:    logger,
	}
}

// SetRules replaces the active rule set.
func (d *Dispatcher) SetRules(rules []Rule) {
	d.mu.Lock()
	d.rules = append([]Rule(nil), rules...)
	d.mu.Unlock()
}

// ResponseCreated evaluates every rule against the new response and
// publishes an event on the form's subject for each match.
func (d *Dispatcher) ResponseCreated(ctx context.Context, resp *model.Response) {
	d.mu.RLock()
	rules := d.rules
	d.mu.RUnlock()

	for i := range rules {
		rule := &rules[i]

		match, err := d.evaluator.Evaluate(rule, EventResponseCreated, resp)
		if err != nil {
			d.logger.Error("rule evaluation failed",
				"rule", rule.ID, "form", resp.FormID, "error", err)
			continue
		}
		if !match {
			continue
		}

		d.publish(ctx, rule, resp)
	}
}

func (d *Dispatcher) publish(ctx context.Context, rule *Rule, resp *model.Response) {
	evt := Event{
		Type:     EventResponseCreated,
		RuleID:   rule.ID,
		Channel:  rule.Channel,
		Response: resp,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		d.logger.Error("failed to marshal notification event",
			"rule", rule.ID, "error", err)
		return
	}

	subject := resp.FormID + ".created"
	if err := d.publisher.Publish(ctx, subject, data); err != nil {
		d.logger.Error("failed to publish notification event",
			"rule", rule.ID, "subject", subject, "error", err)
		return
	}

	d.logger.Debug("notification event published",
		"rule", rule.ID, "subject", subject, "channel", rule.Channel)
}
