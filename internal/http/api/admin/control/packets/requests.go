package packets

type ScheduleRequest struct {
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time"   binding:"omitempty,datetime=15:04"`
}

// UpdateDraftRequest edits draft metadata; nil fields are left alone.
type UpdateDraftRequest struct {
	Name        *string          `json:"name"         binding:"omitempty,min=1,max=200"`
	CompanyID   *int64           `json:"company_id"   binding:"omitempty,gt=0"`
	BranchIDs   []int64          `json:"branch_ids"   binding:"omitempty,dive,gt=0"`
	DeviceTypes []string         `json:"device_types" binding:"omitempty,dive,device_type"`
	Schedule    *ScheduleRequest `json:"schedule"`
}

// LibraryImageRequest toggles a media library image on the draft.
type LibraryImageRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url"  binding:"required,url"`
}

type YouTubeRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// MoveItemRequest splices the item named Source into Target's slot.
type MoveItemRequest struct {
	Source string `json:"source" binding:"required"`
	Target string `json:"target" binding:"required"`
}

type DurationRequest struct {
	Seconds int `json:"seconds" binding:"required,slide_duration"`
}

type LoadDraftRequest struct {
	PlaylistID string `json:"playlist_id" binding:"required"`
}

type DeliveryRequest struct {
	BranchIDs []int64 `json:"branch_ids" binding:"required,min=1,dive,gt=0"`
}

type CompanySettingRequest struct {
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

type DeviceCommandRequest struct {
	Command string `json:"command" binding:"required,oneof=next prev pause resume fullscreen windowed"`
}
