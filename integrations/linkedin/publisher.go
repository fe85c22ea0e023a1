package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainPublisher "github.com/AzielCF/az-post/domains/publisher"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const restliProtocolVersion = "2.0.0"

// Connection stores one user's LinkedIn OAuth grant. PersonSub is the "sub"
// claim of the token's profile, used to build the author URN.
type Connection struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"uniqueIndex"`
	AccessToken string    `json:"-"`
	PersonSub   string    `json:"person_sub"`
	ConnectedAt time.Time `json:"connected_at"`
}

func (Connection) TableName() string {
	return "linkedin_connections"
}

// Publisher posts to LinkedIn through the ugcPosts API, resolving tokens
// from the connections table. It implements domains/publisher.IPublisher.
type Publisher struct {
	db         *gorm.DB
	httpClient *http.Client
	baseURL    string
}

func NewPublisher(db *gorm.DB, baseURL string) *Publisher {
	return &Publisher{
		db:         db,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (p *Publisher) InitSchema(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&Connection{})
}

// SaveConnection upserts the grant for a user, replacing any previous token.
func (p *Publisher) SaveConnection(ctx context.Context, conn Connection) error {
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = time.Now().UTC()
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "person_sub", "connected_at"}),
		}).
		Create(&conn).Error
}

func (p *Publisher) connection(ctx context.Context, userID string) (Connection, error) {
	var conn Connection
	err := p.db.WithContext(ctx).First(&conn, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Connection{}, fmt.Errorf("LinkedIn connection not found for user %s", userID)
		}
		return Connection{}, err
	}
	if conn.AccessToken == "" {
		return Connection{}, fmt.Errorf("LinkedIn access token not found for user %s", userID)
	}
	return conn, nil
}

func (p *Publisher) PostText(ctx context.Context, userID, text string) (domainPublisher.PublishResult, error) {
	conn, err := p.connection(ctx, userID)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}

	payload := map[string]any{
		"author":         "urn:li:person:" + conn.PersonSub,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	return p.createPost(ctx, conn.AccessToken, payload)
}

// PostWithImage downloads the image, pushes it through the LinkedIn asset
// upload flow and publishes a share referencing the uploaded asset.
func (p *Publisher) PostWithImage(ctx context.Context, userID, text, imageURL string) (domainPublisher.PublishResult, error) {
	conn, err := p.connection(ctx, userID)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}

	imageData, err := p.downloadImage(ctx, imageURL)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}

	asset, err := p.uploadImage(ctx, conn, imageData)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}

	payload := map[string]any{
		"author":         "urn:li:person:" + conn.PersonSub,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"text": text},
				"shareMediaCategory": "IMAGE",
				"media": []map[string]any{
					{"status": "READY", "media": asset},
				},
			},
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	return p.createPost(ctx, conn.AccessToken, payload)
}

func (p *Publisher) createPost(ctx context.Context, token string, payload map[string]any) (domainPublisher.PublishResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainPublisher.PublishResult{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return domainPublisher.PublishResult{}, fmt.Errorf("LinkedIn post failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domainPublisher.PublishResult{}, fmt.Errorf("failed to parse LinkedIn response: %w", err)
	}

	return domainPublisher.PublishResult{
		PostID:  result.ID,
		PostURL: postURLFromID(result.ID),
	}, nil
}

// postURLFromID derives the public feed URL. Post IDs come back as full URNs
// (urn:li:ugcPost:12345); the trailing segment is the feed update ID.
func postURLFromID(postID string) string {
	if postID == "" {
		return ""
	}
	if idx := strings.LastIndex(postID, ":"); idx >= 0 {
		return "https://www.linkedin.com/feed/update/" + postID[idx+1:]
	}
	return "https://www.linkedin.com/feed/update/" + postID
}

func (p *Publisher) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image from URL: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// uploadImage runs the two-step asset flow: register the upload, then PUT
// the bytes to the returned upload URL. Returns the asset URN.
func (p *Publisher) uploadImage(ctx context.Context, conn Connection, imageData []byte) (string, error) {
	registerPayload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   "urn:li:person:" + conn.PersonSub,
			"serviceRelationships": []map[string]any{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}

	body, err := json.Marshal(registerPayload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to register image upload (status %d): %s", resp.StatusCode, string(respBody))
	}

	var register struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism struct {
				MediaUploadHTTPRequest struct {
					UploadURL string `json:"uploadUrl"`
				} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&register); err != nil {
		return "", fmt.Errorf("failed to parse register upload response: %w", err)
	}

	uploadURL := register.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if uploadURL == "" || register.Value.Asset == "" {
		return "", fmt.Errorf("register upload response missing upload URL or asset")
	}

	uploadReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(imageData))
	if err != nil {
		return "", err
	}
	uploadReq.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	uploadReq.Header.Set("Content-Type", "image/jpeg")

	uploadResp, err := p.httpClient.Do(uploadReq)
	if err != nil {
		return "", err
	}
	defer uploadResp.Body.Close()

	if uploadResp.StatusCode != http.StatusOK && uploadResp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to upload image to LinkedIn (status %d)", uploadResp.StatusCode)
	}

	logrus.Debugf("[LINKEDIN] Uploaded image asset %s", register.Value.Asset)
	return register.Value.Asset, nil
}
