package publisher

import "context"

type PublishResult struct {
	PostID  string `json:"post_id"`
	PostURL string `json:"post_url"`
}

// IPublisher posts finalized content on behalf of a user.
type IPublisher interface {
	PostText(ctx context.Context, userID, text string) (PublishResult, error)
	PostWithImage(ctx context.Context, userID, text, imageURL string) (PublishResult, error)
}
