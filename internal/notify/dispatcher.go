package notify

import (
	"context"
	"log"
	"time"

	"smartguard/internal/models"
)

const dispatchTimeout = 15 * time.Second

// Dispatcher resolves target users to their registered addresses and fans
// one alarm message out across the push and e-mail channels. A failure for
// one target never aborts delivery to the others; the caller gets a
// per-target outcome list.
type Dispatcher struct {
	registry Registry
	push     PushSender
	mail     EmailSender
}

func NewDispatcher(registry Registry, push PushSender, mail EmailSender) *Dispatcher {
	return &Dispatcher{registry: registry, push: push, mail: mail}
}

// Register validates the address shape and stores it, overwriting any
// prior address for the user.
func (d *Dispatcher) Register(userID, address string) (Target, error) {
	channel, err := ClassifyAddress(address)
	if err != nil {
		return Target{}, err
	}
	target := Target{UserID: userID, Address: address, Channel: channel}
	d.registry.Register(target)
	log.Printf("Registered %s address for user %s", channel, userID)
	return target, nil
}

func (d *Dispatcher) Unregister(userID string) bool {
	return d.registry.Remove(userID)
}

func (d *Dispatcher) Lookup(userID string) (Target, bool) {
	return d.registry.Lookup(userID)
}

func (d *Dispatcher) Users() []string {
	return d.registry.Users()
}

// Dispatch sends one alarm-derived message to each target user. Title and
// body default to the deterministic translation of the kinds present in
// data. Unregistered users are skipped with a "no_token" outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, data models.Snapshot, targetUsers []string, title, body string) []models.DispatchOutcome {
	if title == "" || body == "" {
		derivedTitle, derivedBody := AlarmText(data.Alarms)
		if title == "" {
			title = derivedTitle
		}
		if body == "" {
			body = derivedBody
		}
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	outcomes := make([]models.DispatchOutcome, 0, len(targetUsers))
	var pushTokens []string
	var pushUsers []int // outcome indexes awaiting the batch result

	for _, userID := range targetUsers {
		target, ok := d.registry.Lookup(userID)
		if !ok {
			outcomes = append(outcomes, models.DispatchOutcome{UserID: userID, Status: "no_token"})
			continue
		}

		switch target.Channel {
		case ChannelPush:
			pushTokens = append(pushTokens, target.Address)
			pushUsers = append(pushUsers, len(outcomes))
			outcomes = append(outcomes, models.DispatchOutcome{UserID: userID, Status: "sent"})
		case ChannelEmail:
			outcome := models.DispatchOutcome{UserID: userID, Status: "sent"}
			err := d.mail.SendAlarm(EmailRequest{
				AlarmType: title,
				Reasons:   describeAll(data.Alarms),
				Severity:  "CRITICAL",
				Timestamp: data.Timestamp,
				Snapshot:  &data,
				Email:     target.Address,
			})
			if err != nil {
				log.Printf("E-mail delivery failed for user %s: %v", userID, err)
				outcome.Status = "failed"
				outcome.Error = err.Error()
			}
			outcomes = append(outcomes, outcome)
		}
	}

	if len(pushTokens) > 0 {
		if err := d.push.Push(ctx, pushTokens, title, body, data); err != nil {
			log.Printf("Push delivery failed for %d token(s): %v", len(pushTokens), err)
			for _, i := range pushUsers {
				outcomes[i].Status = "failed"
				outcomes[i].Error = err.Error()
			}
		} else {
			log.Printf("Sent %d push notification(s)", len(pushTokens))
		}
	}

	return outcomes
}

// SendRaw pushes directly to explicit tokens, bypassing the registry.
// Tokens with an unrecognizable shape are filtered out first.
func (d *Dispatcher) SendRaw(ctx context.Context, tokens []string, title, body string, data interface{}) (int, error) {
	valid := tokens[:0:0]
	for _, t := range tokens {
		if channel, err := ClassifyAddress(t); err == nil && channel == ChannelPush {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return 0, ErrInvalidAddress
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	if err := d.push.Push(ctx, valid, title, body, data); err != nil {
		return 0, err
	}
	return len(valid), nil
}

func describeAll(kinds []models.AlarmKind) []string {
	reasons := make([]string, 0, len(kinds))
	for _, k := range kinds {
		reasons = append(reasons, Describe(k))
	}
	return reasons
}
