package webserver

// SuccessResponse wraps every successful API payload.
type SuccessResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	OK     bool        `json:"ok"`
	Error  string      `json:"error"`
	Code   string      `json:"code,omitempty"`
	Detail interface{} `json:"detail,omitempty"`
}
