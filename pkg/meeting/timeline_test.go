package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineRecordPreservesOrder(t *testing.T) {
	tl := NewTimeline()

	tl.Record(EventTranscript, "first")
	tl.Record(EventQuestion, "what is the total?")
	tl.Record(EventTranscript, "second")
	tl.RecordAnswer("the total is 42", ModeBrief)

	events := tl.Events()
	require.Len(t, events, 4)
	assert.Equal(t, EventTranscript, events[0].Kind)
	assert.Equal(t, EventQuestion, events[1].Kind)
	assert.Equal(t, EventAnswer, events[3].Kind)
	assert.Equal(t, ModeBrief, events[3].Mode)

	for _, ev := range events {
		assert.False(t, ev.Timestamp.IsZero(), "timestamps are server-assigned")
	}
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp))
	}
}

func TestRecentTranscript(t *testing.T) {
	tl := NewTimeline()

	tl.Record(EventTranscript, "we discussed pricing")
	tl.Record(EventScreenAnalysis, "slide shows Q3 revenue")
	tl.Record(EventTranscript, "the client asked about discounts")
	tl.Record(EventAnswer, "ignored by transcript window")

	got := tl.RecentTranscript(0)
	assert.Equal(t, "we discussed pricing\nthe client asked about discounts", got)

	assert.Equal(t, "the client asked about discounts", tl.RecentTranscript(1),
		"window keeps the most recent transcript events")
}

func TestRecentTranscriptEmpty(t *testing.T) {
	tl := NewTimeline()
	assert.Equal(t, "", tl.RecentTranscript(10))
}

func TestLatestScreenAnalysis(t *testing.T) {
	tl := NewTimeline()

	_, ok := tl.LatestScreenAnalysis()
	assert.False(t, ok, "no analysis recorded yet")

	tl.Record(EventScreenAnalysis, "first analysis")
	tl.Record(EventTranscript, "chatter")
	tl.Record(EventScreenAnalysis, "second analysis")

	text, ok := tl.LatestScreenAnalysis()
	require.True(t, ok)
	assert.Equal(t, "second analysis", text)
}

func TestTimelineMaxEventsDropsOldest(t *testing.T) {
	tl := NewTimeline(WithMaxEvents(3))

	tl.Record(EventTranscript, "one")
	tl.Record(EventTranscript, "two")
	tl.Record(EventTranscript, "three")
	tl.Record(EventTranscript, "four")

	events := tl.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "two", events[0].Text)
	assert.Equal(t, "four", events[2].Text)
}
