package ws

// Action constants for WebSocket messages
const (
	// Health
	ActionHealthCheck = "health.check"

	// Prompt actions (client -> server)
	ActionPromptList   = "prompt.list"
	ActionPromptCreate = "prompt.create"
	ActionPromptGet    = "prompt.get"
	ActionPromptUpdate = "prompt.update"
	ActionPromptDelete = "prompt.delete"

	// Subscription actions
	ActionPromptsSubscribe   = "prompts.subscribe"
	ActionPromptsUnsubscribe = "prompts.unsubscribe"

	// Notification actions (server -> client). A snapshot always carries the
	// complete collection, never a delta.
	ActionPromptsSnapshot = "prompts.snapshot"
)

// Error codes
const (
	ErrorCodeBadRequest    = "BAD_REQUEST"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeInternalError = "INTERNAL_ERROR"
	ErrorCodeUnauthorized  = "UNAUTHORIZED"
	ErrorCodeForbidden     = "FORBIDDEN"
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeUnknownAction = "UNKNOWN_ACTION"
)
