package http

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// StopRequest asks the running match to stop
type StopRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

type StopResponse struct {
	Stopping bool   `json:"stopping"`
	Reason   string `json:"reason,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"`
}
