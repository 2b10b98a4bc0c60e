// pkg/timeline/timeline.go

package timeline

import (
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// Fixed track layout. Every scene owns one slot on the shared time axis; the
// audio and text tracks only carry a clip where the scene has that content.
const (
	VideoTrackID = "track-1"
	AudioTrackID = "track-2"
	TextTrackID  = "track-3"

	videoPrefix = "v-"
	audioPrefix = "a-"
	textPrefix  = "t-"

	// MinClipSeconds is the shortest a clip can be resized to.
	MinClipSeconds = 0.5
)

// ClipID derives the id of the clip a scene produces on the given track kind.
func ClipID(kind skeleton.ClipType, sceneID string) string {
	switch kind {
	case skeleton.ClipAudio:
		return audioPrefix + sceneID
	case skeleton.ClipText:
		return textPrefix + sceneID
	default:
		return videoPrefix + sceneID
	}
}

// SceneSeconds is the layout length of a scene. Auto and unset durations
// take the default until real media reports its length.
func SceneSeconds(s skeleton.Scene) float64 {
	return s.Duration.Seconds(skeleton.DefaultSceneSeconds)
}

// RebuildTracks lays every scene out on a single running clock and splits the
// result into the video, audio and text tracks. It is a pure function of scenes.
func RebuildTracks(scenes []skeleton.Scene) []skeleton.Track {
	video := make([]skeleton.Clip, 0, len(scenes))
	audio := make([]skeleton.Clip, 0, len(scenes))
	text := make([]skeleton.Clip, 0, len(scenes))

	elapsed := 0.0
	for _, s := range scenes {
		d := SceneSeconds(s)
		video = append(video, videoClip(s, elapsed, d))
		if hasAudio(s) {
			audio = append(audio, audioClip(s, elapsed, d))
		}
		if s.DialogueContent != "" {
			text = append(text, textClip(s, elapsed, d))
		}
		elapsed += d
	}

	return []skeleton.Track{
		{ID: VideoTrackID, Name: "Track 1", Clips: video},
		{ID: AudioTrackID, Name: "Track 2", Clips: audio},
		{ID: TextTrackID, Name: "Track 3", Clips: text},
	}
}

func hasAudio(s skeleton.Scene) bool {
	return s.AudioDesign != "" || s.AudioURL != ""
}

func videoClip(s skeleton.Scene, start, d float64) skeleton.Clip {
	id := s.ID
	if r := []rune(id); len(r) > 4 {
		id = string(r[:4])
	}
	return skeleton.Clip{
		ID:        ClipID(skeleton.ClipVideo, s.ID),
		Type:      skeleton.ClipVideo,
		SceneID:   s.ID,
		StartTime: start,
		Duration:  d,
		Content:   s.VisualDescription,
		Title:     "Scene " + id,
		ImageURL:  s.ImageURL,
		VideoURL:  s.VideoURL,
	}
}

func audioClip(s skeleton.Scene, start, d float64) skeleton.Clip {
	content := s.AudioDesign
	if content == "" {
		content = s.DialogueContent
	}
	return skeleton.Clip{
		ID:        ClipID(skeleton.ClipAudio, s.ID),
		Type:      skeleton.ClipAudio,
		SceneID:   s.ID,
		StartTime: start,
		Duration:  d,
		Content:   content,
		Title:     headline(content),
		AudioURL:  s.AudioURL,
	}
}

func textClip(s skeleton.Scene, start, d float64) skeleton.Clip {
	return skeleton.Clip{
		ID:        ClipID(skeleton.ClipText, s.ID),
		Type:      skeleton.ClipText,
		SceneID:   s.ID,
		StartTime: start,
		Duration:  d,
		Content:   s.DialogueContent,
		Title:     headline(s.DialogueContent),
	}
}

func headline(s string) string {
	r := []rune(s)
	if len(r) > 20 {
		return string(r[:20])
	}
	return s
}

// TotalDuration is the end of the last clip on any track.
func TotalDuration(tracks []skeleton.Track) float64 {
	total := 0.0
	for _, t := range tracks {
		for _, c := range t.Clips {
			if end := c.End(); end > total {
				total = end
			}
		}
	}
	return total
}

// ActiveClipAt returns the clip of track playing at time t, if any.
func ActiveClipAt(track skeleton.Track, t float64) (skeleton.Clip, bool) {
	for _, c := range track.Clips {
		if t >= c.StartTime && t < c.End() {
			return c, true
		}
	}
	return skeleton.Clip{}, false
}

// FindTrack returns the track with the given id.
func FindTrack(tracks []skeleton.Track, id string) (skeleton.Track, bool) {
	for _, t := range tracks {
		if t.ID == id {
			return t, true
		}
	}
	return skeleton.Track{}, false
}
