package telegram

import (
	"strconv"
	"strings"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

const planCallbackPrefix = "plan:"

// ParseUpdate classifies a raw update into a domain event. Updates the bot
// does not react to yield nil.
func ParseUpdate(u Update) model.Event {
	if cq := u.CallbackQuery; cq != nil {
		if cq.From == nil {
			return nil
		}
		planID, ok := strings.CutPrefix(cq.Data, planCallbackPrefix)
		if !ok || planID == "" {
			return nil
		}
		return model.PlanChosen{UserID: cq.From.ID, PlanID: planID}
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}
	userID := msg.From.ID

	if len(msg.Photo) > 0 {
		// Sizes are ordered from smallest to largest.
		return model.ProofSubmitted{UserID: userID, ProofRef: msg.Photo[len(msg.Photo)-1].FileID}
	}

	command, args := splitCommand(msg.Text)
	switch command {
	case "start":
		return model.Start{UserID: userID}
	case "cancel":
		return model.CancelRequested{UserID: userID}
	case "confirm":
		return approverCommand(userID, model.ApproverConfirm, args)
	case "reject":
		return approverCommand(userID, model.ApproverReject, args)
	case "resend":
		return approverCommand(userID, model.ApproverResend, args)
	default:
		return nil
	}
}

// SenderID returns the account that produced the update, or 0 when there is none.
func SenderID(u Update) int64 {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	default:
		return 0
	}
}

func approverCommand(actorID int64, action model.ApproverAction, args []string) model.Event {
	cmd := model.ApproverCommand{ActorID: actorID, Action: action}
	if len(args) > 0 {
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil && id > 0 {
			cmd.TargetUserID = id
		}
	}
	return cmd
}

// splitCommand returns the lower-cased command name without the leading slash
// and bot mention, plus its arguments. Non-command text yields an empty name.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}
