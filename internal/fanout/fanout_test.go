package fanout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slipalert-service/internal/models"
	"slipalert-service/internal/observability"
)

type fakeSubscriberStore struct {
	subs []models.Subscriber
}

func (f *fakeSubscriberStore) ListSubscribers(context.Context) ([]models.Subscriber, error) {
	return f.subs, nil
}

// fakeJobStore mimics the (user_id, warning_id) insert-or-ignore semantics.
type fakeJobStore struct {
	jobs []models.DeliveryJob
	seen map[string]bool
}

func (f *fakeJobStore) EnqueueJobs(_ context.Context, jobs []models.DeliveryJob) (int64, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	var inserted int64
	for _, job := range jobs {
		key := fmt.Sprintf("%d/%s", job.UserID, job.WarningID)
		if f.seen[key] {
			continue
		}
		f.seen[key] = true
		f.jobs = append(f.jobs, job)
		inserted++
	}
	return inserted, nil
}

func helsinki(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)
	return loc
}

func strptr(s string) *string { return &s }

// 18:00 UTC on a winter day is 20:00 in Helsinki.
var testNow = time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

func newEnqueuer(t *testing.T, subs *fakeSubscriberStore, jobs *fakeJobStore) *Enqueuer {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(subs, jobs, clockwork.NewFakeClockAt(testNow), helsinki(t), logger, observability.NewNop())
}

func uusimaaDetails(lang string) []models.WarningDetail {
	return []models.WarningDetail{{
		Lang: lang, Event: "Pedestrian weather", Description: "icy", Areas: []string{"Uusimaa"},
	}}
}

func TestImmediateSubscriberScheduledNow(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "fi"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(6 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	require.Len(t, jobs.jobs, 1)
	assert.True(t, jobs.jobs[0].ScheduledAt.Equal(testNow))
}

func TestDailySlotRollsToNextDay(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Helsinki", Hour: strptr("08:00"), Language: "en"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow, ExpiresAt: testNow.Add(72 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("en")))
	require.Len(t, jobs.jobs, 1)

	// Local time is already 20:00, so the 08:00 slot lands tomorrow:
	// 2026-01-16 08:00 Helsinki == 06:00 UTC.
	want := time.Date(2026, 1, 16, 6, 0, 0, 0, time.UTC)
	assert.True(t, jobs.jobs[0].ScheduledAt.Equal(want), "got %v", jobs.jobs[0].ScheduledAt)
}

func TestSlotOutsideWindowDropsSubscriber(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Hour: strptr("08:00"), Language: "en"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow, ExpiresAt: testNow.Add(2 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("en")))
	assert.Empty(t, jobs.jobs)
}

func TestScheduleClampedToOnset(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "fi"},
	}}
	jobs := &fakeJobStore{}
	onset := testNow.Add(3 * time.Hour)
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: onset, ExpiresAt: testNow.Add(24 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	require.Len(t, jobs.jobs, 1)
	assert.True(t, jobs.jobs[0].ScheduledAt.Equal(onset))
}

func TestRepeatedFanOutIsIdempotent(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "fi"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(6 * time.Hour),
	}

	e := newEnqueuer(t, subs, jobs)
	require.NoError(t, e.EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	require.NoError(t, e.EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	assert.Len(t, jobs.jobs, 1)
}

func TestLanguageFallbackAndAreaFilter(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "sv"},   // matches despite no sv block
		{ID: 2, Phone: "+358402", Area: "Pirkanmaa", Language: "fi"}, // wrong region
		{ID: 3, Phone: "+358403", Area: "Helsinki", Language: "fi"},  // alias of Uusimaa
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(6 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	require.Len(t, jobs.jobs, 2)
	assert.Equal(t, 1, jobs.jobs[0].UserID)
	assert.Equal(t, 3, jobs.jobs[1].UserID)
}

func TestSubscriberMatchesAnyLanguageBlock(t *testing.T) {
	// The en block names a different region than the fi block; an English
	// subscriber in the fi block's region is still notified.
	details := []models.WarningDetail{
		{Lang: "en", Event: "Pedestrian weather", Description: "icy", Areas: []string{"Pirkanmaa"}},
		{Lang: "fi", Event: "Jalankulkusää", Description: "liukasta", Areas: []string{"Uusimaa"}},
	}
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "en"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(6 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, details))
	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, "en", jobs.jobs[0].Language)
	assert.Contains(t, jobs.jobs[0].Message, "slippery")
}

func TestMessageRenderedPerLanguage(t *testing.T) {
	subs := &fakeSubscriberStore{subs: []models.Subscriber{
		{ID: 1, Phone: "+358401", Area: "Uusimaa", Language: "fi"},
		{ID: 2, Phone: "+358402", Area: "Uusimaa", Language: "fi"},
		{ID: 3, Phone: "+358403", Area: "Uusimaa", Language: "en"},
	}}
	jobs := &fakeJobStore{}
	w := models.Warning{
		ID: "w1", Status: models.WarningStatusActive,
		OnsetAt: testNow.Add(-time.Hour), ExpiresAt: testNow.Add(6 * time.Hour),
	}

	require.NoError(t, newEnqueuer(t, subs, jobs).EnqueueWarning(context.Background(), w, uusimaaDetails("fi")))
	require.Len(t, jobs.jobs, 3)
	assert.Equal(t, jobs.jobs[0].Message, jobs.jobs[1].Message, "same language shares one rendered text")
	assert.NotEqual(t, jobs.jobs[0].Message, jobs.jobs[2].Message)
	assert.Contains(t, jobs.jobs[2].Message, "slippery")
}
