package error

// GenericError is implemented by error types that carry an API error code
// and an HTTP status, so the recovery middleware can map them onto the
// response envelope.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
