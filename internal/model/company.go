package model

import "time"

type Company struct {
	ID   int64  `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

// Branch is a store location that can receive playlists.
type Branch struct {
	ID        int64    `db:"id"         json:"id"`
	CompanyID int64    `db:"company_id" json:"company_id"`
	Name      string   `db:"name"       json:"name"`
	Address   string   `db:"address"    json:"address"`
	Phone     *string  `db:"phone"      json:"phone,omitempty"`
	Email     *string  `db:"email"      json:"email,omitempty"`
	Hours     *string  `db:"hours"      json:"hours,omitempty"`
	Latitude  *float64 `db:"latitude"   json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude"  json:"longitude,omitempty"`
}

type DeliveryStatus string

const (
	DeliveryIdle    DeliveryStatus = "idle"
	DeliverySending DeliveryStatus = "sending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryError   DeliveryStatus = "error"
)

// Delivery is one row of the send history.
type Delivery struct {
	ID         int64          `db:"id"          json:"id"`
	BatchID    string         `db:"batch_id"    json:"batch_id"`
	PlaylistID string         `db:"playlist_id" json:"playlist_id"`
	BranchID   int64          `db:"branch_id"   json:"branch_id"`
	Status     DeliveryStatus `db:"status"      json:"status"`
	SentAt     time.Time      `db:"sent_at"     json:"sent_at"`
}

// CompanySetting toggles a company's visibility across the app.
type CompanySetting struct {
	Enabled bool   `json:"enabled"`
	Name    string `json:"name"`
}
