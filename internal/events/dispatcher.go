package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"club_service/internal/emails"
	sl "club_service/internal/lib/logger"
	"club_service/internal/models"
)

// Notification contexts emitted by the store's triggers.
const (
	ContextActivityCancelled   = "activity_cancelled"
	ContextActivityCreated     = "activity_created"
	ContextActivityReminder    = "activity_reminder"
	ContextJoinedActivity      = "joined_activity"
	ContextLeftActivity        = "left_activity"
	ContextGroupMemberApproved = "group_member_approved"
	ContextGroupMemberRejected = "group_member_rejected"
)

// Publisher queues one rendered email for delivery.
type Publisher interface {
	Publish(ctx context.Context, msg models.EmailMessage) error
}

// Dispatcher maps an event context to its email-sending routine. Fan-out
// is best-effort: a failure for one recipient is logged and the rest
// proceed. Unknown contexts are logged and dropped, never fatal.
type Dispatcher struct {
	log  *slog.Logger
	mail Publisher
}

func NewDispatcher(log *slog.Logger, mail Publisher) *Dispatcher {
	return &Dispatcher{
		log:  log,
		mail: mail,
	}
}

type eventPayload struct {
	UserData     []models.Recipient `json:"user_data"`
	ActivityName string             `json:"activity_name"`
	GroupName    string             `json:"group_name"`
	Location     string             `json:"location"`
	ActivityTime string             `json:"activity_time"`
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	log := d.log.With(slog.String("context", ev.Context))

	var p eventPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		log.Error("invalid event payload", sl.Err(err))
		return
	}

	switch ev.Context {
	case ContextActivityCancelled:
		d.perActivityRecipient(ctx, log, p, emails.ActivityCancelled)
	case ContextActivityCreated:
		if !require(log, p.ActivityName != "", "activity_name") {
			return
		}
		d.fanOut(ctx, log, p.UserData, func(r models.Recipient) (string, string, error) {
			return emails.ActivityCreated(r.Name, p.ActivityName, p.GroupName, p.Location, p.ActivityTime)
		})
	case ContextActivityReminder:
		if !require(log, p.ActivityName != "", "activity_name") {
			return
		}
		d.fanOut(ctx, log, p.UserData, func(r models.Recipient) (string, string, error) {
			return emails.ActivityReminder(r.Name, p.ActivityName, p.Location, p.ActivityTime)
		})
	case ContextJoinedActivity:
		d.perActivityRecipient(ctx, log, p, emails.JoinedActivity)
	case ContextLeftActivity:
		d.perActivityRecipient(ctx, log, p, emails.LeftActivity)
	case ContextGroupMemberApproved:
		d.perGroupRecipient(ctx, log, p, emails.GroupMemberApproved)
	case ContextGroupMemberRejected:
		d.perGroupRecipient(ctx, log, p, emails.GroupMemberRejected)
	default:
		log.Info("unknown notification context, dropping")
	}
}

func (d *Dispatcher) perActivityRecipient(
	ctx context.Context,
	log *slog.Logger,
	p eventPayload,
	render func(name, activityName string) (string, string, error),
) {
	if !require(log, p.ActivityName != "", "activity_name") {
		return
	}

	d.fanOut(ctx, log, p.UserData, func(r models.Recipient) (string, string, error) {
		return render(r.Name, p.ActivityName)
	})
}

func (d *Dispatcher) perGroupRecipient(
	ctx context.Context,
	log *slog.Logger,
	p eventPayload,
	render func(name, groupName string) (string, string, error),
) {
	if !require(log, p.GroupName != "", "group_name") {
		return
	}

	d.fanOut(ctx, log, p.UserData, func(r models.Recipient) (string, string, error) {
		return render(r.Name, p.GroupName)
	})
}

// fanOut queues one email per recipient. No all-or-nothing guarantee.
func (d *Dispatcher) fanOut(
	ctx context.Context,
	log *slog.Logger,
	recipients []models.Recipient,
	render func(models.Recipient) (subject, html string, err error),
) {
	if len(recipients) == 0 {
		log.Warn("event has no recipients")
		return
	}

	for _, r := range recipients {
		if r.Email == "" {
			log.Warn("recipient without email, skipping")
			continue
		}

		subject, html, err := render(r)
		if err != nil {
			log.Error("failed to render email", sl.Err(err), slog.String("to", r.Email))
			continue
		}

		msg := models.EmailMessage{
			To:      r.Email,
			Subject: subject,
			HTML:    html,
		}

		if err := d.mail.Publish(ctx, msg); err != nil {
			log.Error("failed to queue email", sl.Err(err), slog.String("to", r.Email))
			continue
		}
	}
}

func require(log *slog.Logger, ok bool, field string) bool {
	if !ok {
		log.Error("event missing required field", slog.String("field", field))
	}

	return ok
}
