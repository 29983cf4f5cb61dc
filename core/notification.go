package core

import "time"

// NotificationStatus is the lifecycle state of a payment request notification.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationDismissed NotificationStatus = "dismissed"
	NotificationPaid      NotificationStatus = "paid"
)

// NotificationRecord is a payment request delivered to a payer.
// From is the requester; To is the payer who receives the notification.
type NotificationRecord struct {
	ID          string             `json:"id"`
	From        string             `json:"from"`
	FromName    string             `json:"fromName,omitempty"`
	To          string             `json:"to"`
	Amount      string             `json:"amount"`
	TokenSymbol Token              `json:"tokenSymbol"`
	Description string             `json:"description"`
	Status      NotificationStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}
