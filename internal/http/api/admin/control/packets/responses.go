package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
)

type DeviceTypeResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type PlaylistResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Items       []model.PlaylistItem  `json:"items"`
	CompanyID   *int64                `json:"company_id,omitempty"`
	BranchIDs   []int64               `json:"branch_ids"`
	DeviceTypes []DeviceTypeResponse  `json:"device_types"`
	Schedule    *model.ScheduleWindow `json:"schedule,omitempty"`
	UpdatedAt   *time.Time            `json:"updated_at,omitempty"`
}

// DraftResponse is a draft handle plus the playlist it currently holds.
type DraftResponse struct {
	DraftID  string           `json:"draft_id"`
	Playlist PlaylistResponse `json:"playlist"`
}

type UploadImagesResponse struct {
	Added   []model.PlaylistItem `json:"added"`
	Skipped []playlist.FileError `json:"skipped"`
	Draft   DraftResponse        `json:"draft"`
}

type ToggleResponse struct {
	Result string        `json:"result"`
	Draft  DraftResponse `json:"draft"`
}

type DeliveryStartedResponse struct {
	BatchID    string  `json:"batch_id"`
	PlaylistID string  `json:"playlist_id"`
	BranchIDs  []int64 `json:"branch_ids"`
}

type BranchStatusResponse struct {
	BranchID int64  `json:"branch_id"`
	Status   string `json:"status"`
}

type DeliveryStatusResponse struct {
	Branches []BranchStatusResponse `json:"branches"`
	History  []model.Delivery       `json:"history"`
}

type CompanyResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type LibraryItemResponse struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ModifiedAt  time.Time `json:"modified_at"`
}
