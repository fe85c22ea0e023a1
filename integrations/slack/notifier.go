package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const apiBaseURL = "https://slack.com/api"

// Connection links an account to its Slack identity so notifications can be
// delivered as direct messages. BotToken overrides the global token when the
// workspace installed its own app.
type Connection struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"uniqueIndex"`
	SlackUserID string    `json:"slack_user_id"`
	TeamID      string    `json:"team_id"`
	BotToken    string    `json:"-"`
	ConnectedAt time.Time `json:"connected_at"`
}

func (Connection) TableName() string {
	return "slack_connections"
}

// Notifier sends best-effort DMs through the Slack Web API. It implements
// domains/notify.INotifier.
type Notifier struct {
	db           *gorm.DB
	defaultToken string
	httpClient   *http.Client
}

func NewNotifier(db *gorm.DB, defaultToken string) *Notifier {
	return &Notifier{
		db:           db,
		defaultToken: defaultToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (n *Notifier) InitSchema(ctx context.Context) error {
	return n.db.WithContext(ctx).AutoMigrate(&Connection{})
}

func (n *Notifier) SaveConnection(ctx context.Context, conn Connection) error {
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = time.Now().UTC()
	}
	return n.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"slack_user_id", "team_id", "bot_token", "connected_at"}),
		}).
		Create(&conn).Error
}

// Notify opens a DM with the user's Slack identity and posts the message.
func (n *Notifier) Notify(ctx context.Context, userID, message string) error {
	var conn Connection
	err := n.db.WithContext(ctx).First(&conn, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logrus.Debugf("[SLACK] No connection for user %s, skipping notification", userID)
			return nil
		}
		return err
	}

	token := conn.BotToken
	if token == "" {
		token = n.defaultToken
	}
	if token == "" || conn.SlackUserID == "" {
		logrus.Debugf("[SLACK] Connection for user %s has no token or Slack user ID, skipping", userID)
		return nil
	}

	channelID, err := n.openDM(ctx, token, conn.SlackUserID)
	if err != nil {
		return err
	}

	return n.postMessage(ctx, token, channelID, message)
}

func (n *Notifier) openDM(ctx context.Context, token, slackUserID string) (string, error) {
	var result struct {
		OK      bool   `json:"ok"`
		Error   string `json:"error"`
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}
	if err := n.call(ctx, token, "conversations.open", map[string]any{"users": slackUserID}, &result); err != nil {
		return "", err
	}
	if !result.OK || result.Channel.ID == "" {
		return "", fmt.Errorf("failed to open Slack DM channel: %s", result.Error)
	}
	return result.Channel.ID, nil
}

func (n *Notifier) postMessage(ctx context.Context, token, channelID, text string) error {
	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := n.call(ctx, token, "chat.postMessage", map[string]any{"channel": channelID, "text": text}, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("failed to post Slack message: %s", result.Error)
	}
	return nil
}

func (n *Notifier) call(ctx context.Context, token, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack %s returned status %d", method, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
