package values

type contextKey string

const (
	Success         = "success"
	Created         = "created"
	Error           = "error"
	SystemErr       = "system error"
	BadRequestBody  = "bad request body"
	Unprocessable   = "unprocessable"
	NotAllowed      = "not allowed"
	Conflict        = "conflict"
	NotFound        = "not found"
	NotAuthorised   = "not authorised"
	TokenExpired    = "token expired"
	TooManyRequests = "too many requests"
	Unavailable     = "unavailable"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

const (
	ContextTracingKey contextKey = "tracing"
	ContextUserKey    contextKey = "user_id"
)
