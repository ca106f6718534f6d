package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pairwatch-telegram-bot/internal/database"
	"pairwatch-telegram-bot/internal/lookup"
	"pairwatch-telegram-bot/internal/types"
	"pairwatch-telegram-bot/lib/helpers"
	"pairwatch-telegram-bot/lib/translation"
)

// PriceLookup fetches a live quote for a pair address.
type PriceLookup interface {
	Fetch(ctx context.Context, pairAddress string) (*lookup.PairPrice, error)
}

// Notifier delivers a trigger message to a chat. Delivery is fire-and-forget:
// a failed send is logged and counted, never retried.
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Report summarizes one monitoring cycle.
type Report struct {
	Triggered     int
	GroupsChecked int
	Failures      int
}

// Monitor owns the alert watch-list. All cycle executions, scheduled or
// manual, are serialized through its mutex so two cycles can never interleave
// their read-evaluate-retire sequences.
type Monitor struct {
	lookup   PriceLookup
	notifier Notifier
	interval time.Duration
	pacing   time.Duration

	mu sync.Mutex
}

func New(pl PriceLookup, n Notifier, interval, pacing time.Duration) *Monitor {
	return &Monitor{
		lookup:   pl,
		notifier: n,
		interval: interval,
		pacing:   pacing,
	}
}

// Start launches the background scheduler. It runs one cycle per interval
// until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Price monitor stopped.")
				return
			case <-ticker.C:
				report, err := m.RunCycle(ctx)
				if err != nil {
					log.Errorf("Scheduled alert cycle failed: %v", err)
					continue
				}
				log.Debugf("Alert cycle done: %d triggered, %d groups, %d failures",
					report.Triggered, report.GroupsChecked, report.Failures)
			}
		}
	}()
	log.Info("Price monitor started.")
}

// RunCycle executes one full monitoring pass: snapshot all alerts, group them
// by pair address, fetch one quote per group, evaluate, notify and retire.
// Safe to call concurrently with the scheduler; callers are serialized.
func (m *Monitor) RunCycle(ctx context.Context) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var report Report

	alerts, err := database.GetAllAlerts()
	if err != nil {
		return report, errors.Wrap(err, "could not snapshot alerts")
	}
	activeAlerts.Set(float64(len(alerts)))
	cyclesRun.Inc()

	if len(alerts) == 0 {
		return report, nil
	}

	groups := make(map[string][]types.Alert)
	for _, a := range alerts {
		groups[a.PairAddress] = append(groups[a.PairAddress], a)
	}

	first := true
	for pairAddress, group := range groups {
		if !first {
			// pacing between upstream calls, per the API's rate budget
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(m.pacing):
			}
		}
		first = false
		report.GroupsChecked++

		quote, err := m.lookup.Fetch(ctx, pairAddress)
		if err != nil {
			// the whole group stays pending until the next cycle
			lookupFailures.Inc()
			report.Failures++
			log.Errorf("Lookup failed for pair %s, skipping %d alert(s): %v", pairAddress, len(group), err)
			continue
		}

		for _, a := range group {
			if !Evaluate(a, quote.PriceUSD) {
				continue
			}
			m.fire(a, quote)
			report.Triggered++
		}
	}

	return report, nil
}

// fire notifies and then retires a triggered alert. Notify-before-delete is
// deliberate: a lost notification retires the alert anyway (at-most-once).
func (m *Monitor) fire(a types.Alert, quote *lookup.PairPrice) {
	if err := m.notifier.Notify(a.ChatID, TriggerMessage(a, quote)); err != nil {
		notificationFailures.Inc()
		log.Errorf("Failed to deliver trigger for alert %s to chat %d: %v", a.ID, a.ChatID, err)
	}

	if _, err := database.DeleteAlert(a.ID); err != nil {
		log.Errorf("Failed to retire alert %s: %v", a.ID, err)
		return
	}
	alertsTriggered.Inc()
	activeAlerts.Dec()
	log.Infof("Alert %s triggered at %f and retired", a.ID, quote.PriceUSD)
}

// TriggerMessage formats the MarkdownV2 notification for a fired alert.
func TriggerMessage(a types.Alert, quote *lookup.PairPrice) string {
	var condition string
	switch a.Condition {
	case types.ConditionAbove:
		condition = fmt.Sprintf(translation.Translate("rose above the target price of *$%s*"), helpers.FormatPriceUS(a.Target, true))
	case types.ConditionBelow:
		condition = fmt.Sprintf(translation.Translate("fell below the target price of *$%s*"), helpers.FormatPriceUS(a.Target, true))
	case types.ConditionPercent:
		condition = fmt.Sprintf(translation.Translate("reached the target change of *%s*"), helpers.FormatPercentage(a.Target))
	}

	msg := fmt.Sprintf(
		"🚨 *%s*\n\n*%s \\(%s\\)* on %s %s\n%s: *$%s* \\(%s %s\\)",
		translation.Translate("Price Alert Triggered"),
		helpers.EscapeMarkdownV2(a.TokenName),
		helpers.EscapeMarkdownV2(a.TokenSymbol),
		helpers.EscapeMarkdownV2(a.Chain),
		condition,
		translation.Translate("Current Price"),
		helpers.FormatPriceUS(quote.PriceUSD, true),
		helpers.FormatPercentage(PercentSinceCreation(a, quote.PriceUSD)),
		translation.Translate("since created"),
	)

	if quote.Change24h != 0 {
		msg += fmt.Sprintf("\n%s: *%s*",
			translation.Translate("24h Change"),
			helpers.FormatPercentage(quote.Change24h),
		)
	}

	if quote.MarketCap > 0 {
		msg += fmt.Sprintf("\n%s: *$%s*",
			translation.Translate("Market Cap"),
			helpers.EscapeMarkdownV2(humanize.SIWithDigits(quote.MarketCap, 2, "")),
		)
	}
	return msg
}
