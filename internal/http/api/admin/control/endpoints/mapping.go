package endpoints

import (
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

func mapPlaylist(pl model.Playlist) packets.PlaylistResponse {
	items := pl.Items
	if items == nil {
		items = []model.PlaylistItem{}
	}
	branches := pl.BranchIDs
	if branches == nil {
		branches = []int64{}
	}
	devices := make([]packets.DeviceTypeResponse, len(pl.DeviceTypes))
	for i, d := range pl.DeviceTypes {
		devices[i] = packets.DeviceTypeResponse{Value: string(d), Label: d.Label()}
	}

	out := packets.PlaylistResponse{
		ID:          pl.ID,
		Name:        pl.Name,
		Items:       items,
		CompanyID:   pl.CompanyID,
		BranchIDs:   branches,
		DeviceTypes: devices,
		Schedule:    pl.Schedule,
	}
	if !pl.UpdatedAt.IsZero() {
		t := pl.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func mapDraft(draftID string, pl model.Playlist) packets.DraftResponse {
	return packets.DraftResponse{DraftID: draftID, Playlist: mapPlaylist(pl)}
}

func toDeviceTypes(values []string) []model.DeviceType {
	if values == nil {
		return nil
	}
	out := make([]model.DeviceType, len(values))
	for i, v := range values {
		out[i] = model.DeviceType(v)
	}
	return out
}

func toSchedule(req *packets.ScheduleRequest) *model.ScheduleWindow {
	if req == nil {
		return nil
	}
	return &model.ScheduleWindow{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}
