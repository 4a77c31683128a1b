package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// InviteIssuer grants channel access through single-use invite links.
type InviteIssuer struct {
	client *Client
	chatID int64
}

// NewInviteIssuer constructs InviteIssuer for the restricted chat.
func NewInviteIssuer(client *Client, chatID int64) *InviteIssuer {
	return &InviteIssuer{client: client, chatID: chatID}
}

// Issue creates an invite link that stops working at expiresAt.
func (i *InviteIssuer) Issue(ctx context.Context, expiresAt time.Time, usageLimit int) (model.Grant, error) {
	link, err := i.client.CreateChatInviteLink(ctx, tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: i.chatID},
		ExpireDate:  int(expiresAt.Unix()),
		MemberLimit: usageLimit,
	})
	if err != nil {
		return model.Grant{}, err
	}
	if link.InviteLink == "" {
		return model.Grant{}, fmt.Errorf("telegram returned an empty invite link")
	}
	return model.Grant{Ref: link.InviteLink, ExpiresAt: expiresAt, UsageLimit: usageLimit}, nil
}

// Revoke invalidates an invite link.
func (i *InviteIssuer) Revoke(ctx context.Context, ref string) error {
	return i.client.RevokeChatInviteLink(ctx, i.chatID, ref)
}

// RemoveMember kicks the user out of the chat. The ban is lifted right away
// so a renewed link still works.
func (i *InviteIssuer) RemoveMember(ctx context.Context, userID int64) error {
	if err := i.client.BanChatMember(ctx, i.chatID, userID); err != nil {
		return err
	}
	return i.client.UnbanChatMember(ctx, i.chatID, userID)
}
