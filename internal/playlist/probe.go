package playlist

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abema/go-mp4"
)

var errNoMovieHeader = errors.New("mp4: movie header not found")

// ProbeMP4 reads the movie duration of an ISO-BMFF file. When the movie
// header carries no duration, as in fragmented files, the longest track
// wins.
func ProbeMP4(r io.ReadSeeker) (time.Duration, error) {
	info, err := mp4.Probe(r)
	if err != nil {
		return 0, fmt.Errorf("mp4: %w", err)
	}
	if info.Timescale != 0 && info.Duration != 0 {
		return scaled(info.Duration, info.Timescale), nil
	}
	var longest time.Duration
	for _, tr := range info.Tracks {
		if tr.Timescale == 0 {
			continue
		}
		if d := scaled(tr.Duration, tr.Timescale); d > longest {
			longest = d
		}
	}
	if longest == 0 {
		return 0, errNoMovieHeader
	}
	return longest, nil
}

func scaled(duration uint64, timescale uint32) time.Duration {
	return time.Duration(float64(duration) / float64(timescale) * float64(time.Second))
}
