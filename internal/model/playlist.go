package model

import (
	"fmt"
	"time"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

type VideoKind string

const (
	VideoKindLocal   VideoKind = "local"
	VideoKindYouTube VideoKind = "youtube"
)

// DeviceType describes the hardware class a playlist targets. Descriptive only.
type DeviceType string

const (
	DeviceVideowall DeviceType = "videowall"
	DeviceRegister  DeviceType = "register"
	DeviceKiosk     DeviceType = "kiosk"
	DeviceTotem     DeviceType = "totem"
	DeviceMenuBoard DeviceType = "menu_board"
)

var deviceTypeLabels = map[DeviceType]string{
	DeviceVideowall: "Videowall",
	DeviceRegister:  "Pantalla de caja",
	DeviceKiosk:     "Kiosco",
	DeviceTotem:     "Tótem",
	DeviceMenuBoard: "Menu board",
}

// Label returns the human readable name shown to operators.
func (d DeviceType) Label() string {
	if l, ok := deviceTypeLabels[d]; ok {
		return l
	}
	return string(d)
}

func (d DeviceType) IsValid() bool {
	_, ok := deviceTypeLabels[d]
	return ok
}

func ParseDeviceType(value string) (DeviceType, error) {
	d := DeviceType(value)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid device type %q", value)
	}
	return d, nil
}

// DefaultPlaylistName is used until the operator renames a draft.
const DefaultPlaylistName = "Nueva playlist"

type PlaylistItem struct {
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	Kind            MediaKind `json:"kind"`
	VideoKind       VideoKind `json:"video_kind,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
}

func (it PlaylistItem) IsVideo() bool {
	return it.Kind == MediaKindVideo
}

// Duration is the display time of the item; videos ignore it during autoplay.
func (it PlaylistItem) Duration() time.Duration {
	return time.Duration(it.DurationSeconds) * time.Second
}

// ScheduleWindow is advisory metadata, nothing enforces it.
type ScheduleWindow struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type Playlist struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Items       []PlaylistItem  `json:"items"`
	CompanyID   *int64          `json:"company_id,omitempty"`
	BranchIDs   []int64         `json:"branch_ids"`
	DeviceTypes []DeviceType    `json:"device_types"`
	Schedule    *ScheduleWindow `json:"schedule,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers can't mutate shared slices.
func (p Playlist) Clone() Playlist {
	out := p
	out.Items = append([]PlaylistItem(nil), p.Items...)
	out.BranchIDs = append([]int64(nil), p.BranchIDs...)
	out.DeviceTypes = append([]DeviceType(nil), p.DeviceTypes...)
	if p.CompanyID != nil {
		id := *p.CompanyID
		out.CompanyID = &id
	}
	if p.Schedule != nil {
		s := *p.Schedule
		out.Schedule = &s
	}
	return out
}

// IndexOf returns the position of the item named name, or -1.
func (p Playlist) IndexOf(name string) int {
	for i, it := range p.Items {
		if it.Name == name {
			return i
		}
	}
	return -1
}
