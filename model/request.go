// file: model/request.go

package model

// WithdrawRequest is the payload for a withdrawal. Amount is a decimal string
// so the value is never routed through float64.
type WithdrawRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// WithdrawResponse carries the single outcome tag of a withdrawal attempt.
type WithdrawResponse struct {
	Status WithdrawalStatus `json:"status"`
}
