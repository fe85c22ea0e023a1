package schedule

import pkgError "github.com/AzielCF/az-post/pkg/error"

// Sentinel errors, comparable with == across the repository and usecase
// layers. Both carry a 404 status for the API surface.
var (
	ErrScheduleNotFound = pkgError.NotFoundError("schedule not found")
	ErrTokenNotFound    = pkgError.NotFoundError("review token not found or already processed")
)
