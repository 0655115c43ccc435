package models

// ExecutionResult is the dispatcher's answer for one intent. The originating
// intent is echoed back so the caller can confirm what was acted on. Mock is
// set only when no workflow backend was configured.
type ExecutionResult struct {
	Success bool    `json:"success"`
	Result  string  `json:"result"`
	Intent  *Intent `json:"intent"`
	Mock    bool    `json:"mock,omitempty"`
}
