package engagement

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(opts ...Option) (*Engine, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 5, 11, 9, 0, 0, 0, time.UTC)}
	e := New(DefaultConfig(), opts...)
	e.now = clk.Now
	return e, clk
}

func TestTrackInteractionCountsAndQuizCounters(t *testing.T) {
	e, _ := newTestEngine()

	m := e.TrackInteraction("s1", "u1", InteractionClick, nil)
	assert.Equal(t, 1, m.InteractionCount)
	assert.Equal(t, 0, m.TotalQuestions)

	m = e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	assert.Equal(t, 2, m.InteractionCount)
	assert.Equal(t, 1, m.TotalQuestions)
	assert.Equal(t, 1, m.CorrectAnswers)

	m = e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": false})
	assert.Equal(t, 2, m.TotalQuestions)
	assert.Equal(t, 1, m.CorrectAnswers)

	// Missing or malformed data counts as incorrect, never as an error.
	m = e.TrackInteraction("s1", "u1", InteractionQuizSubmit, nil)
	assert.Equal(t, 3, m.TotalQuestions)
	assert.Equal(t, 1, m.CorrectAnswers)

	m = e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": "yes"})
	assert.Equal(t, 4, m.TotalQuestions)
	assert.Equal(t, 1, m.CorrectAnswers)

	// Unknown types participate without touching quiz counters.
	m = e.TrackInteraction("s1", "u1", InteractionType("hover"), nil)
	assert.Equal(t, 6, m.InteractionCount)
	assert.Equal(t, 4, m.TotalQuestions)

	assert.LessOrEqual(t, m.CorrectAnswers, m.TotalQuestions)
}

func TestFocusTimeGapIsCapped(t *testing.T) {
	e, clk := newTestEngine()

	e.TrackInteraction("s1", "u1", InteractionClick, nil)

	clk.Advance(2 * time.Minute)
	m := e.TrackInteraction("s1", "u1", InteractionClick, nil)
	assert.Equal(t, 2*time.Minute, m.FocusTime)

	// A long idle gap only credits the cap.
	clk.Advance(30 * time.Minute)
	m = e.TrackInteraction("s1", "u1", InteractionClick, nil)
	assert.Equal(t, 7*time.Minute, m.FocusTime)
	assert.Equal(t, 32*time.Minute, m.TotalTime)
	assert.LessOrEqual(t, m.FocusTime, m.TotalTime)
}

func TestFocusNeverExceedsTotal(t *testing.T) {
	e, clk := newTestEngine()

	gaps := []time.Duration{0, 30 * time.Second, 4 * time.Minute, 5 * time.Minute, 6 * time.Minute, time.Hour}
	for _, gap := range gaps {
		clk.Advance(gap)
		m := e.TrackInteraction("s1", "u1", InteractionAnswer, nil)
		assert.LessOrEqual(t, m.FocusTime, m.TotalTime)
	}
}

func TestLazyCreateAndHistory(t *testing.T) {
	e, clk := newTestEngine()

	// Reads create the record too; the score path never fails on a fresh key.
	_ = e.CalculateScore("s1", "u1")
	assert.Equal(t, 1, e.HistoryLen("u1"))

	snap, ok := e.Snapshot("s1", "u1")
	require.True(t, ok)
	assert.Equal(t, clk.Now(), snap.StartTime)
	assert.Zero(t, snap.InteractionCount)

	// Same key resolves to the same record.
	e.TrackInteraction("s1", "u1", InteractionClick, nil)
	snap, _ = e.Snapshot("s1", "u1")
	assert.Equal(t, 1, snap.InteractionCount)
	assert.Equal(t, 1, e.HistoryLen("u1"))

	// A second session for the learner appends to history.
	e.TrackInteraction("s2", "u1", InteractionClick, nil)
	assert.Equal(t, 2, e.HistoryLen("u1"))
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryLimit = 3
	e := New(cfg)

	for i := 0; i < 5; i++ {
		e.TrackInteraction(fmt.Sprintf("s%d", i), "u1", InteractionClick, nil)
	}
	assert.Equal(t, 3, e.HistoryLen("u1"))
}

func TestRecordBreak(t *testing.T) {
	e, clk := newTestEngine()

	e.TrackInteraction("s1", "u1", InteractionClick, nil)
	clk.Advance(20 * time.Minute)

	m := e.RecordBreak("s1", "u1")
	assert.Equal(t, 1, m.BreaksTaken)
	assert.Equal(t, clk.Now(), m.LastBreak)

	m = e.RecordBreak("s1", "u1")
	assert.Equal(t, 2, m.BreaksTaken)
}

func TestEvictKeepsHistory(t *testing.T) {
	e, clk := newTestEngine()

	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	clk.Advance(time.Minute)

	final, ok := e.Evict("s1", "u1")
	require.True(t, ok)
	assert.Equal(t, 1, final.TotalQuestions)
	assert.Equal(t, time.Minute, final.TotalTime)

	_, ok = e.Snapshot("s1", "u1")
	assert.False(t, ok)
	assert.Empty(t, e.ActiveSessions())

	// The evicted session still informs trend and consistency.
	assert.Equal(t, 1, e.HistoryLen("u1"))

	_, ok = e.Evict("s1", "u1")
	assert.False(t, ok)
}

func TestActiveSessionsOrderedByStart(t *testing.T) {
	e, clk := newTestEngine()

	e.TrackInteraction("s1", "u1", InteractionClick, nil)
	clk.Advance(time.Minute)
	e.TrackInteraction("s2", "u2", InteractionClick, nil)

	sessions := e.ActiveSessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].SessionID)
	assert.Equal(t, "s2", sessions[1].SessionID)
}

func TestSeedHistoryOnlyWhenEmpty(t *testing.T) {
	e, _ := newTestEngine()

	seeded := e.SeedHistory("u1", []Metrics{
		{SessionID: "old1", CorrectAnswers: 2, TotalQuestions: 2},
		{SessionID: "old2", CorrectAnswers: 1, TotalQuestions: 2},
	})
	assert.True(t, seeded)
	assert.Equal(t, 2, e.HistoryLen("u1"))

	assert.False(t, e.SeedHistory("u1", []Metrics{{SessionID: "old3"}}))
	assert.Equal(t, 2, e.HistoryLen("u1"))

	// Seeded sessions count toward the consistency window.
	score := e.CalculateScore("s1", "u1")
	assert.Greater(t, score.Consistency, 0.0)
	assert.Equal(t, 3, e.HistoryLen("u1"))
}

type captureSink struct {
	engine *Engine

	mu     sync.Mutex
	events []Event
	counts []int
}

func (s *captureSink) InteractionRecorded(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.engine.Snapshot(evt.SessionID, evt.UserID); ok {
		s.counts = append(s.counts, m.InteractionCount)
	}
	s.events = append(s.events, evt)
}

func TestSinkSeesAppliedUpdate(t *testing.T) {
	sink := &captureSink{}
	e, _ := newTestEngine(WithSink(sink))
	sink.engine = e

	e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": true})
	e.TrackInteraction("s1", "u1", InteractionClick, nil)

	require.Len(t, sink.events, 2)

	quiz := sink.events[0]
	assert.Equal(t, InteractionQuizSubmit, quiz.Type)
	require.NotNil(t, quiz.Correct)
	assert.True(t, *quiz.Correct)

	click := sink.events[1]
	assert.Equal(t, InteractionClick, click.Type)
	assert.Nil(t, click.Correct)

	// The metric update lands before the notification goes out.
	assert.Equal(t, []int{1, 2}, sink.counts)
}

func TestConcurrentTrackingKeepsInvariants(t *testing.T) {
	e, _ := newTestEngine()

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if i%2 == 0 {
					e.TrackInteraction("s1", "u1", InteractionQuizSubmit, map[string]any{"correct": w%2 == 0})
				} else {
					e.TrackInteraction("s1", "u1", InteractionClick, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	m, ok := e.Snapshot("s1", "u1")
	require.True(t, ok)
	assert.Equal(t, workers*perWorker, m.InteractionCount)
	assert.Equal(t, workers*perWorker/2, m.TotalQuestions)
	assert.LessOrEqual(t, m.CorrectAnswers, m.TotalQuestions)
	assert.Equal(t, 1, e.HistoryLen("u1"))
}

func TestEmptyIdentifiersAreAccepted(t *testing.T) {
	e, _ := newTestEngine()

	m := e.TrackInteraction("", "", InteractionClick, nil)
	assert.Equal(t, 1, m.InteractionCount)

	score := e.CalculateScore("", "")
	assert.GreaterOrEqual(t, score.Overall, 0.0)
	assert.LessOrEqual(t, score.Overall, 1.0)
}
