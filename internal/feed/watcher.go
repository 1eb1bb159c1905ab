// Package feed polls the alert authority's feed and drives the warning
// lifecycle: parsed alert documents become warning records, and a warning
// going active triggers fan-out.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"slipalert-service/internal/area"
	"slipalert-service/internal/cap"
	"slipalert-service/internal/db"
	"slipalert-service/internal/events"
	"slipalert-service/internal/models"
	"slipalert-service/internal/observability"
)

// subjectRe picks out the alerts this service cares about: pedestrian
// slipperiness, nothing else the authority publishes.
var subjectRe = regexp.MustCompile(`(?i)pedestrian|slippery`)

type WarningStore interface {
	GetWarning(ctx context.Context, id string) (models.Warning, error)
	CreateWarning(ctx context.Context, w models.Warning) error
	UpdateWarningWindow(ctx context.Context, id, area string, onsetAt, expiresAt time.Time) error
	CancelWarning(ctx context.Context, id string) error
	HasActiveWarning(ctx context.Context, now time.Time) (bool, error)
	ReplaceWarningDetails(ctx context.Context, warningID string, details []models.WarningDetail) error
}

type Enqueuer interface {
	EnqueueWarning(ctx context.Context, w models.Warning, details []models.WarningDetail) error
}

type Publisher interface {
	Publish(ctx context.Context, event string, w models.Warning) error
}

// Config carries the watcher's knobs.
type Config struct {
	FeedURL     string
	TargetAreas []string
	// ActiveHorizon caps warning lifetime when the alert has no usable expiry.
	ActiveHorizon time.Duration
}

// Watcher runs the ingestion tick.
type Watcher struct {
	cfg      Config
	store    WarningStore
	enqueuer Enqueuer
	events   Publisher // may be nil when Kafka is not configured
	state    StateStore
	clock    clockwork.Clock
	http     *http.Client
	parser   *gofeed.Parser
	logger   *logrus.Logger
	metrics  *observability.Metrics
}

func NewWatcher(cfg Config, store WarningStore, enqueuer Enqueuer, events Publisher, state StateStore, clock clockwork.Clock, httpClient *http.Client, logger *logrus.Logger, metrics *observability.Metrics) *Watcher {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	return &Watcher{
		cfg:      cfg,
		store:    store,
		enqueuer: enqueuer,
		events:   events,
		state:    state,
		clock:    clock,
		http:     httpClient,
		parser:   parser,
		logger:   logger,
		metrics:  metrics,
	}
}

// Tick runs one ingestion pass. Per-entry failures are logged and skipped so
// one broken alert document cannot block the others; only feed-level
// failures surface, and the next tick retries them naturally.
func (w *Watcher) Tick(ctx context.Context) error {
	marker, err := w.headLastModified(ctx)
	if err != nil {
		return fmt.Errorf("failed to check feed freshness: %w", err)
	}
	if marker != "" && marker == w.state.LastModified() {
		w.logger.Debug("Feed unchanged")
		return nil
	}

	parsed, err := w.parser.ParseURLWithContext(w.cfg.FeedURL, ctx)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	for _, item := range parsed.Items {
		if err := w.processEntry(ctx, item); err != nil {
			w.metrics.FeedEntryErrors.Inc()
			w.logger.Errorf("Feed entry %q failed: %v", item.Title, err)
		}
	}

	// The marker only advances once the pass completed, so a feed that failed
	// to parse is retried on the next tick even if upstream stays unchanged.
	w.state.SetLastModified(marker)
	w.metrics.FeedTicks.Inc()
	return nil
}

func (w *Watcher) headLastModified(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.cfg.FeedURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("Last-Modified"), nil
}

func (w *Watcher) processEntry(ctx context.Context, item *gofeed.Item) error {
	if !subjectRe.MatchString(item.Title) {
		return nil
	}
	if !area.MatchesTitle(item.Title, w.cfg.TargetAreas) {
		return nil
	}
	if item.Link == "" {
		return nil
	}

	doc, err := w.fetchAlert(ctx, item.Link)
	if err != nil {
		return err
	}
	msg, err := cap.Parse(doc)
	if err != nil {
		return err
	}

	details := w.relevantDetails(msg)
	if len(details) == 0 && msg.Type != cap.MessageCancel {
		w.logger.Debugf("Alert %s has no info blocks for the target regions", msg.Identifier)
		return nil
	}
	return w.applyAlert(ctx, msg, details)
}

func (w *Watcher) fetchAlert(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alert document fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// relevantDetails keeps the info blocks whose normalized areas intersect the
// configured target regions.
func (w *Watcher) relevantDetails(msg cap.AlertMessage) []models.WarningDetail {
	var details []models.WarningDetail
	for _, info := range msg.Info {
		matched := false
		for _, desc := range info.Areas {
			normalized := area.Normalize(desc)
			for _, target := range w.cfg.TargetAreas {
				if area.Match(normalized, area.Normalize(target)) {
					matched = true
				}
			}
		}
		if !matched {
			continue
		}
		details = append(details, models.WarningDetail{
			WarningID:   msg.Identifier,
			Lang:        info.LangCode(),
			Event:       info.Event,
			Headline:    info.Headline,
			Description: info.Description,
			Areas:       info.Areas,
		})
	}
	return details
}

// applyAlert drives the warning state machine, keyed by the alert's kind and
// whether the identifier is already known.
func (w *Watcher) applyAlert(ctx context.Context, msg cap.AlertMessage, details []models.WarningDetail) error {
	now := w.clock.Now()

	existing, err := w.store.GetWarning(ctx, msg.Identifier)
	known := err == nil
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}

	switch {
	case msg.Type == cap.MessageCancel && known:
		if err := w.store.CancelWarning(ctx, msg.Identifier); err != nil {
			return err
		}
		w.metrics.WarningsCancelled.Inc()
		w.logger.Infof("Cancelled warning %s", msg.Identifier)
		existing.Status = models.WarningStatusCancelled
		w.publish(ctx, events.EventWarningCancelled, existing)

	case msg.Type == cap.MessageCancel:
		w.logger.Infof("Cancel received for unknown warning %s", msg.Identifier)

	case msg.Type == cap.MessageUpdate && known:
		onsetAt, expiresAt := w.window(msg, now)
		if err := w.store.UpdateWarningWindow(ctx, msg.Identifier, w.areaLabel(), onsetAt, expiresAt); err != nil {
			return err
		}
		if err := w.store.ReplaceWarningDetails(ctx, msg.Identifier, details); err != nil {
			return err
		}
		w.metrics.WarningsUpdated.Inc()
		w.logger.Infof("Updated warning %s (expires %s)", msg.Identifier, expiresAt)
		existing.OnsetAt, existing.ExpiresAt = onsetAt, expiresAt
		w.publish(ctx, events.EventWarningUpdated, existing)

	case msg.Type == cap.MessageNew && !known:
		// Single-active policy: while one warning is live, further new
		// alerts are skipped rather than stacked.
		active, err := w.store.HasActiveWarning(ctx, now)
		if err != nil {
			return err
		}
		if active {
			w.metrics.WarningsSkipped.Inc()
			w.logger.Infof("Skipping new warning %s: another warning is active", msg.Identifier)
			return nil
		}

		onsetAt, expiresAt := w.window(msg, now)
		warning := models.Warning{
			ID:        msg.Identifier,
			Area:      w.areaLabel(),
			Status:    models.WarningStatusActive,
			CreatedAt: now,
			OnsetAt:   onsetAt,
			ExpiresAt: expiresAt,
		}
		if err := w.store.CreateWarning(ctx, warning); err != nil {
			return err
		}
		if err := w.store.ReplaceWarningDetails(ctx, msg.Identifier, details); err != nil {
			return err
		}
		w.metrics.WarningsCreated.Inc()
		w.logger.Infof("Created warning %s (expires %s)", msg.Identifier, expiresAt)
		if err := w.enqueuer.EnqueueWarning(ctx, warning, details); err != nil {
			return err
		}
		w.publish(ctx, events.EventWarningCreated, warning)

	default:
		w.logger.Debugf("Alert %s already known, nothing to do", msg.Identifier)
	}
	return nil
}

// window resolves the warning's validity from the alert, falling back to now
// for an unparseable onset and to the configured horizon for a missing expiry.
func (w *Watcher) window(msg cap.AlertMessage, now time.Time) (onsetAt, expiresAt time.Time) {
	onsetAt = now
	expiresAt = now.Add(w.cfg.ActiveHorizon)
	if len(msg.Info) == 0 {
		return onsetAt, expiresAt
	}
	if msg.Info[0].Onset != nil {
		onsetAt = *msg.Info[0].Onset
	}
	if msg.Info[0].Expires != nil && msg.Info[0].Expires.After(now) {
		expiresAt = *msg.Info[0].Expires
	}
	return onsetAt, expiresAt
}

func (w *Watcher) areaLabel() string {
	if len(w.cfg.TargetAreas) > 0 {
		return w.cfg.TargetAreas[0]
	}
	return "Uusimaa"
}

func (w *Watcher) publish(ctx context.Context, event string, warning models.Warning) {
	if w.events == nil {
		return
	}
	if err := w.events.Publish(ctx, event, warning); err != nil {
		w.logger.Warnf("Failed to publish %s for %s: %v", event, warning.ID, err)
	}
}
