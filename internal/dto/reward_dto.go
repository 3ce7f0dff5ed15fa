package dto

import "github.com/google/uuid"

type CreateRewardRequest struct {
	FinderID    uuid.UUID `json:"finder_id"`
	Amount      float64   `json:"amount"`
	PhoneNumber string    `json:"phone_number"`
}

// MpesaCallbackRequest is the webhook body the gateway posts after an STK
// push resolves. ResultCode 0 means the payment went through.
type MpesaCallbackRequest struct {
	RewardID       uuid.UUID `json:"reward_id"`
	ResultCode     int       `json:"result_code"`
	ResultDesc     string    `json:"result_desc"`
	TransactionRef string    `json:"transaction_ref"`
}
