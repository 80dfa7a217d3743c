package packets

// RESPONSES FOR /playlist/:id

// PlaybackItem is one slide as a player renders it. YouTube URLs are
// already in embed form.
type PlaybackItem struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Kind            string `json:"kind"`
	VideoKind       string `json:"video_kind,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

type PlaybackResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Items []PlaybackItem `json:"items"`
}
