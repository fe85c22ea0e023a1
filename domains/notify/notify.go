package notify

import "context"

// INotifier delivers out-of-band notifications (review links, failures).
// Delivery is best-effort: implementations log and swallow transport errors.
type INotifier interface {
	Notify(ctx context.Context, userID, message string) error
}
