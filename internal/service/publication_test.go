package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebioudaniel/family-academy-api/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func TestResolveTransitionDraft(t *testing.T) {
	tr, err := ResolveTransition(ChoiceDraft, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, tr.Status)
	assert.Nil(t, tr.PublishedAt)
	assert.Nil(t, tr.ScheduledAt)
}

func TestResolveTransitionPublishStampsClock(t *testing.T) {
	tr, err := ResolveTransition(ChoicePublish, nil, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, tr.Status)
	require.NotNil(t, tr.PublishedAt)
	assert.Equal(t, fixedNow, *tr.PublishedAt)
	assert.Nil(t, tr.ScheduledAt)
}

func TestResolveTransitionPublishIgnoresScheduleDate(t *testing.T) {
	later := fixedNow.Add(48 * time.Hour)
	tr, err := ResolveTransition(ChoicePublish, &later, fixedNow)
	require.NoError(t, err)
	assert.Nil(t, tr.ScheduledAt)
}

func TestResolveTransitionSchedule(t *testing.T) {
	at := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	tr, err := ResolveTransition(ChoiceSchedule, &at, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, tr.Status)
	assert.Nil(t, tr.PublishedAt)
	require.NotNil(t, tr.ScheduledAt)
	assert.Equal(t, at, *tr.ScheduledAt)
}

func TestResolveTransitionScheduleWithoutDate(t *testing.T) {
	_, err := ResolveTransition(ChoiceSchedule, nil, fixedNow)
	require.Error(t, err)
}

func TestResolveTransitionUnknownChoice(t *testing.T) {
	_, err := ResolveTransition("archive", nil, fixedNow)
	require.Error(t, err)
}

func TestTransitionApplyClearsStaleTimestamps(t *testing.T) {
	published := fixedNow.Add(-time.Hour)
	course := &models.Course{
		Status:      models.StatusPublished,
		PublishedAt: &published,
	}

	tr, err := ResolveTransition(ChoiceDraft, nil, fixedNow)
	require.NoError(t, err)
	tr.Apply(course)

	assert.Equal(t, models.StatusDraft, course.Status)
	assert.Nil(t, course.PublishedAt)
	assert.Nil(t, course.ScheduledAt)
}

func TestRepublishRefreshesPublishedAt(t *testing.T) {
	original := fixedNow.Add(-24 * time.Hour)
	course := &models.Course{
		Status:      models.StatusPublished,
		PublishedAt: &original,
	}

	tr, err := ResolveTransition(ChoicePublish, nil, fixedNow)
	require.NoError(t, err)
	tr.Apply(course)

	assert.Equal(t, models.StatusPublished, course.Status)
	require.NotNil(t, course.PublishedAt)
	assert.Equal(t, fixedNow, *course.PublishedAt)
}

func TestParseScheduleDate(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"2030-01-01T10:00", time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"2030-01-01T10:00:00Z", time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"2030-01-01", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"not-a-date", time.Time{}, true},
	}

	for _, tc := range cases {
		got, err := ParseScheduleDate(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		require.NotNil(t, got, tc.raw)
		assert.True(t, got.Equal(tc.want), tc.raw)
	}
}

func TestParseScheduleDateEmpty(t *testing.T) {
	got, err := ParseScheduleDate("")
	require.NoError(t, err)
	assert.Nil(t, got)
}
