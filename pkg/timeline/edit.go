package timeline

import (
	"math"

	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// Ripple applies a new duration for one scene to tracks previously produced
// by RebuildTracks. Only the changed clips and the start times after them are
// touched; everything else, including loaded media URLs, is carried over. The
// result is identical to rebuilding from the scenes with that one duration
// changed, because downstream starts are re-accumulated in the same order.
func Ripple(tracks []skeleton.Track, sceneID string, d skeleton.Duration) []skeleton.Track {
	out := make([]skeleton.Track, len(tracks))
	copy(out, tracks)

	vi := -1
	for i, t := range out {
		if t.ID == VideoTrackID {
			vi = i
			break
		}
	}
	if vi < 0 {
		return out
	}
	video := out[vi].Clips
	ci := -1
	for i, c := range video {
		if c.SceneID == sceneID {
			ci = i
			break
		}
	}
	if ci < 0 {
		return out
	}

	seconds := d.Seconds(skeleton.DefaultSceneSeconds)
	shifted := make(map[string]float64, len(video)-ci)
	next := cloneClips(video)
	next[ci].Duration = seconds
	elapsed := next[ci].StartTime + seconds
	for j := ci + 1; j < len(next); j++ {
		next[j].StartTime = elapsed
		shifted[next[j].SceneID] = elapsed
		elapsed += next[j].Duration
	}
	out[vi].Clips = next

	for i, t := range out {
		if i == vi {
			continue
		}
		clips := cloneClips(t.Clips)
		for j, c := range clips {
			if c.SceneID == sceneID {
				clips[j].Duration = seconds
			} else if start, ok := shifted[c.SceneID]; ok {
				clips[j].StartTime = start
			}
		}
		out[i].Clips = clips
	}
	return out
}

// ResizeRight moves the clip's right edge by delta seconds.
func ResizeRight(c skeleton.Clip, delta float64) skeleton.Clip {
	c.Duration = math.Max(MinClipSeconds, c.Duration+delta)
	return c
}

// ResizeLeft moves the clip's left edge by delta seconds and keeps its end in place.
func ResizeLeft(c skeleton.Clip, delta float64) skeleton.Clip {
	end := c.End()
	start := math.Max(0, c.StartTime+delta)
	start = math.Min(start, end-MinClipSeconds)
	if start < 0 {
		start = 0
	}
	c.StartTime = start
	c.Duration = end - start
	return c
}

// Edge selects which side of a clip an interactive resize drags.
type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// ResizeClip applies an edge drag to the clip with the given id.
// It reports false when the clip does not exist.
func ResizeClip(tracks []skeleton.Track, clipID string, edge Edge, delta float64) ([]skeleton.Track, bool) {
	for ti, t := range tracks {
		for ci, c := range t.Clips {
			if c.ID != clipID {
				continue
			}
			out := make([]skeleton.Track, len(tracks))
			copy(out, tracks)
			clips := cloneClips(t.Clips)
			if edge == EdgeLeft {
				clips[ci] = ResizeLeft(c, delta)
			} else {
				clips[ci] = ResizeRight(c, delta)
			}
			out[ti].Clips = clips
			return out, true
		}
	}
	return tracks, false
}

func cloneClips(clips []skeleton.Clip) []skeleton.Clip {
	out := make([]skeleton.Clip, len(clips))
	copy(out, clips)
	return out
}
