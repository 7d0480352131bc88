package bot

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kjannette/bullionaire-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_PreservesOrder(t *testing.T) {
	sink := &memActivities{}
	r := NewRecorder(sink, RecorderOptions{Buffer: 4})

	for i := 0; i < 50; i++ {
		r.Record(acct, models.ActivityUpdate, fmt.Sprintf("msg %d", i))
	}
	r.Close()

	entries := sink.all()
	require.Len(t, entries, 50)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("msg %d", i), e.Message)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestRecorder_ErrorCallback(t *testing.T) {
	sink := &memActivities{failOn: models.ActivitySignal}

	var mu sync.Mutex
	var failed []models.ActivityType
	r := NewRecorder(sink, RecorderOptions{OnError: func(e *models.ActivityLogEntry, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, e.Type)
	}})

	r.Record(acct, models.ActivityAnalysis, "a")
	r.Record(acct, models.ActivitySignal, "b")
	r.Record(acct, models.ActivityResult, "c")
	r.Close()

	assert.Len(t, sink.all(), 2)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.ActivityType{models.ActivitySignal}, failed)
}

func TestRecorder_RecordAfterCloseIsDropped(t *testing.T) {
	sink := &memActivities{}
	r := NewRecorder(sink, RecorderOptions{})
	r.Close()
	r.Close()

	r.Record(acct, models.ActivityUpdate, "late")
	assert.Empty(t, sink.all())
}

func TestFailureReporter(t *testing.T) {
	sink := &memActivities{}
	notifier := &memNotifier{}
	report := FailureReporter(sink, notifier, 0)

	report(&models.ActivityLogEntry{AccountID: acct, Type: models.ActivityResult}, errors.New("disk full"))

	errs := sink.ofType(models.ActivityError)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERROR: record RESULT activity: disk full", errs[0].Message)
	_, failures := notifier.counts()
	assert.Equal(t, 1, failures)

	report(&models.ActivityLogEntry{AccountID: acct, Type: models.ActivityError}, errors.New("disk full"))
	assert.Len(t, sink.ofType(models.ActivityError), 1)
	_, failures = notifier.counts()
	assert.Equal(t, 2, failures)
}
