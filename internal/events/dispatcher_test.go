package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"club_service/internal/models"

	"github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"
)

type fakePublisher struct {
	sent    []models.EmailMessage
	failFor map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, msg models.EmailMessage) error {
	if f.failFor[msg.To] {
		return errors.New("queue unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dispatch(t *testing.T, pub *fakePublisher, payload string) {
	t.Helper()

	ev, err := parseEvent(payload)
	trequire.NoError(t, err)

	NewDispatcher(discard(), pub).Dispatch(context.Background(), ev)
}

func TestDispatch_ActivityCancelledFanOut(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	dispatch(t, pub, `{
		"event": "activity_cancelled",
		"activity_name": "Chess night",
		"user_data": [
			{"email": "a@example.edu", "name": "Ana"},
			{"email": "b@example.edu", "name": "Bruno"}
		]
	}`)

	trequire.Len(t, pub.sent, 2)
	assert.Equal(t, "a@example.edu", pub.sent[0].To)
	assert.Contains(t, pub.sent[0].HTML, "Ana")
	assert.Contains(t, pub.sent[0].HTML, "Chess night")
	assert.Equal(t, "b@example.edu", pub.sent[1].To)
}

func TestDispatch_OneFailureDoesNotStopFanOut(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{failFor: map[string]bool{"b@example.edu": true}}
	dispatch(t, pub, `{
		"event": "activity_reminder",
		"activity_name": "Chess night",
		"user_data": [
			{"email": "a@example.edu", "name": "Ana"},
			{"email": "b@example.edu", "name": "Bruno"},
			{"email": "c@example.edu", "name": "Clara"}
		]
	}`)

	trequire.Len(t, pub.sent, 2)
	assert.Equal(t, "a@example.edu", pub.sent[0].To)
	assert.Equal(t, "c@example.edu", pub.sent[1].To)
}

func TestDispatch_UnknownContextDropped(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	dispatch(t, pub, `{"event": "budget_approved", "user_data": [{"email": "a@example.edu", "name": "Ana"}]}`)

	assert.Empty(t, pub.sent)
}

func TestDispatch_MissingRequiredFieldDropped(t *testing.T) {
	t.Parallel()

	// activity_cancelled without an activity_name sends nothing
	pub := &fakePublisher{}
	dispatch(t, pub, `{"event": "activity_cancelled", "user_data": [{"email": "a@example.edu", "name": "Ana"}]}`)

	assert.Empty(t, pub.sent)
}

func TestDispatch_GroupMembershipEmails(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	dispatch(t, pub, `{
		"event": "group_member_approved",
		"group_name": "Robotics Club",
		"user_data": [{"email": "a@example.edu", "name": "Ana"}]
	}`)

	trequire.Len(t, pub.sent, 1)
	assert.Contains(t, pub.sent[0].HTML, "Robotics Club")
	assert.True(t, strings.Contains(pub.sent[0].Subject, "approved"))
}

func TestDispatch_RecipientWithoutEmailSkipped(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	dispatch(t, pub, `{
		"event": "joined_activity",
		"activity_name": "Chess night",
		"user_data": [
			{"email": "", "name": "Ghost"},
			{"email": "a@example.edu", "name": "Ana"}
		]
	}`)

	trequire.Len(t, pub.sent, 1)
	assert.Equal(t, "a@example.edu", pub.sent[0].To)
}
