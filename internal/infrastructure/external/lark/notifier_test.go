package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
)

type sentMessage struct {
	idType, receiveID, msgType, content string
}

type mockSender struct {
	sent []sentMessage
	err  error
}

func (m *mockSender) SendMessage(ctx context.Context, receiveIDType, receiveID, msgType, content string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, sentMessage{receiveIDType, receiveID, msgType, content})
	return "om_1", nil
}

func testConfig() Config {
	return Config{
		StaffChatID:   "oc_staff",
		AgencyChatID:  "oc_agency",
		DealerOpenIDs: map[string]string{"dealer-1": "ou_dealer1"},
	}
}

func TestNotifier_RoutesByAudience(t *testing.T) {
	tests := []struct {
		name       string
		msg        port.Notification
		wantType   string
		wantTarget string
	}{
		{"staff chat", port.Notification{Audience: port.AudienceStaff}, ReceiveIDTypeChatID, "oc_staff"},
		{"agency chat", port.Notification{Audience: port.AudienceAgency}, ReceiveIDTypeChatID, "oc_agency"},
		{"dealer contact", port.Notification{Audience: port.AudienceDealer, DealerID: "dealer-1"}, ReceiveIDTypeOpenID, "ou_dealer1"},
		{"dealer id case", port.Notification{Audience: port.AudienceDealer, DealerID: "DEALER-1"}, ReceiveIDTypeOpenID, "ou_dealer1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{}
			n := NewNotifier(sender, testConfig(), zap.NewNop())

			tt.msg.Title = "Yeni talep"
			require.NoError(t, n.Notify(context.Background(), tt.msg))
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.wantType, sender.sent[0].idType)
			assert.Equal(t, tt.wantTarget, sender.sent[0].receiveID)
			assert.Equal(t, "post", sender.sent[0].msgType)
		})
	}
}

func TestNotifier_SkipsUnknownRecipient(t *testing.T) {
	sender := &mockSender{}
	n := NewNotifier(sender, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), port.Notification{Audience: port.AudienceDealer, DealerID: "dealer-9"})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotifier_PostContent(t *testing.T) {
	sender := &mockSender{}
	n := NewNotifier(sender, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), port.Notification{
		Audience: port.AudienceStaff,
		Title:    "Yeni kampanya talebi",
		Body:     "Kampanya talebi \"Yaz\" \"onay\" bekliyor\n\nBütçe aşımı",
		Link:     "https://portal.example.com/requests/campaign/c-1",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	var content map[string]postBody
	require.NoError(t, json.Unmarshal([]byte(sender.sent[0].content), &content))
	post := content["en_us"]
	assert.Equal(t, "Yeni kampanya talebi", post.Title)
	require.Len(t, post.Content, 3, "blank lines are dropped")
	assert.Equal(t, "Kampanya talebi \"Yaz\" \"onay\" bekliyor", post.Content[0][0].Text)
	assert.Equal(t, "Bütçe aşımı", post.Content[1][0].Text)
	assert.Equal(t, "a", post.Content[2][0].Tag)
	assert.Equal(t, "https://portal.example.com/requests/campaign/c-1", post.Content[2][0].Href)
}

func TestNotifier_SendFailure(t *testing.T) {
	sender := &mockSender{err: errors.New("API error: code=230002")}
	n := NewNotifier(sender, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), port.Notification{Audience: port.AudienceAgency, Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to notify agency")
}
