package domain

// Error codes emitted on the structured output stream.
const (
	ErrDeviceNotRunning = "DEVICE_NOT_RUNNING"
	ErrBootFailed       = "BOOT_FAILED"
	ErrScreenshotFailed = "SCREENSHOT_FAILED"
	ErrDumpFailed       = "DUMP_FAILED"
	ErrLogsFailed       = "LOGS_FAILED"
	ErrFlowNotFound     = "FLOW_NOT_FOUND"
	ErrFlowFailed       = "FLOW_FAILED"
	ErrEventStream      = "EVENT_STREAM_FAILED"
	ErrChecksFailed     = "CHECKS_FAILED"
	ErrAppsFailed       = "APPS_FAILED"
)

// ErrorOutput is a structured failure for machine-readable output.
type ErrorOutput struct {
	Type    string `json:"type"` // Always "error"
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// NewErrorOutput creates a structured error.
func NewErrorOutput(code, message string) *ErrorOutput {
	return &ErrorOutput{
		Type:    "error",
		Code:    code,
		Message: message,
	}
}
