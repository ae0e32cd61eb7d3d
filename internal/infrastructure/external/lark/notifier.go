package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
)

// MessageSender is the part of MessageAPI the notifier needs
type MessageSender interface {
	SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error)
}

// Notifier delivers portal notifications as Lark rich text posts
type Notifier struct {
	sender        MessageSender
	staffChatID   string
	agencyChatID  string
	dealerOpenIDs map[string]string
	logger        *zap.Logger
}

// NewNotifier creates a notifier routing each audience to its configured recipient.
// Dealer ids are matched case-insensitively since config keys arrive lowercased.
func NewNotifier(sender MessageSender, cfg Config, logger *zap.Logger) *Notifier {
	dealers := make(map[string]string, len(cfg.DealerOpenIDs))
	for dealerID, openID := range cfg.DealerOpenIDs {
		dealers[strings.ToLower(dealerID)] = openID
	}

	return &Notifier{
		sender:        sender,
		staffChatID:   cfg.StaffChatID,
		agencyChatID:  cfg.AgencyChatID,
		dealerOpenIDs: dealers,
		logger:        logger,
	}
}

// Notify sends n. An audience without a configured recipient is skipped.
func (n *Notifier) Notify(ctx context.Context, msg port.Notification) error {
	idType, receiveID := n.recipient(msg)
	if receiveID == "" {
		n.logger.Info("No Lark recipient configured, notification skipped",
			zap.String("audience", string(msg.Audience)),
			zap.String("dealer_id", msg.DealerID),
			zap.String("request_id", msg.RequestID))
		return nil
	}

	content, err := postContent(msg)
	if err != nil {
		return fmt.Errorf("failed to build message content: %w", err)
	}

	if _, err := n.sender.SendMessage(ctx, idType, receiveID, "post", content); err != nil {
		return fmt.Errorf("failed to notify %s: %w", msg.Audience, err)
	}
	return nil
}

func (n *Notifier) recipient(msg port.Notification) (idType, id string) {
	switch msg.Audience {
	case port.AudienceStaff:
		return ReceiveIDTypeChatID, n.staffChatID
	case port.AudienceAgency:
		return ReceiveIDTypeChatID, n.agencyChatID
	case port.AudienceDealer:
		return ReceiveIDTypeOpenID, n.dealerOpenIDs[strings.ToLower(msg.DealerID)]
	}
	return "", ""
}

type postElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

type postBody struct {
	Title   string          `json:"title"`
	Content [][]postElement `json:"content"`
}

// postContent renders msg in the IM "post" format, one paragraph per body line
func postContent(msg port.Notification) (string, error) {
	body := postBody{Title: msg.Title}
	for _, line := range strings.Split(msg.Body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		body.Content = append(body.Content, []postElement{{Tag: "text", Text: line}})
	}
	if msg.Link != "" {
		body.Content = append(body.Content, []postElement{{Tag: "a", Text: "Talebi görüntüle", Href: msg.Link}})
	}

	raw, err := json.Marshal(map[string]postBody{"en_us": body})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Verify interface compliance
var (
	_ port.Notifier = (*Notifier)(nil)
	_ MessageSender = (*MessageAPI)(nil)
)
