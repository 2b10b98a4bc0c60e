// pkg/document/patch.go

package document

import (
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
)

// Patch is one delta against the latest document. Apply must not mutate its
// argument; skeleton operations already copy what they change.
type Patch interface {
	Apply(doc skeleton.Skeleton) skeleton.Skeleton
}

// PatchFunc adapts a plain function to Patch.
type PatchFunc func(skeleton.Skeleton) skeleton.Skeleton

func (f PatchFunc) Apply(doc skeleton.Skeleton) skeleton.Skeleton { return f(doc) }

// MergeMetadata overlays streamed or final metadata fields.
type MergeMetadata struct {
	Metadata skeleton.Metadata
}

func (p MergeMetadata) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	return skeleton.MergeMetadata(doc, p.Metadata)
}

// ReplaceScenes swaps the whole scene list and derives fresh tracks from it.
type ReplaceScenes struct {
	Scenes []skeleton.Scene
}

func (p ReplaceScenes) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	doc = skeleton.WithScenes(doc, p.Scenes)
	doc.Tracks = timeline.RebuildTracks(doc.Scenes)
	return doc
}

// PatchEntity shallow-merges fields into one character, scene design or scene.
// Scene patches re-derive the tracks so clip media stays in step with scenes.
type PatchEntity struct {
	Collection skeleton.Collection
	ID         string
	Fields     skeleton.Fields
}

func (p PatchEntity) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	next := skeleton.PatchEntity(doc, p.Collection, p.ID, p.Fields)
	if p.Collection == skeleton.Scenes {
		if _, i := next.SceneByID(p.ID); i >= 0 {
			next.Tracks = timeline.RebuildTracks(next.Scenes)
		}
	}
	return next
}

// SetSceneMedia attaches generated media to a scene. Nil URLs are left alone.
type SetSceneMedia struct {
	SceneID  string
	ImageURL *string
	VideoURL *string
	AudioURL *string
}

func (p SetSceneMedia) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	return PatchEntity{
		Collection: skeleton.Scenes,
		ID:         p.SceneID,
		Fields:     skeleton.Fields{ImageURL: p.ImageURL, VideoURL: p.VideoURL, AudioURL: p.AudioURL},
	}.Apply(doc)
}

// SetSceneDuration records a new scene duration and ripples the existing
// tracks instead of rebuilding them.
type SetSceneDuration struct {
	SceneID  string
	Duration skeleton.Duration
}

func (p SetSceneDuration) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	if _, i := doc.SceneByID(p.SceneID); i < 0 {
		return doc
	}
	d := p.Duration
	next := skeleton.PatchEntity(doc, skeleton.Scenes, p.SceneID, skeleton.Fields{Duration: &d})
	if next.Tracks == nil {
		next.Tracks = timeline.RebuildTracks(next.Scenes)
		return next
	}
	next.Tracks = timeline.Ripple(next.Tracks, p.SceneID, d)
	return next
}

// RebuildTracks re-derives every track from the scenes.
type RebuildTracks struct{}

func (RebuildTracks) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	doc.Tracks = timeline.RebuildTracks(doc.Scenes)
	return doc
}

// ResizeClip applies an interactive edge drag to a single clip on the tracks.
type ResizeClip struct {
	ClipID string
	Edge   timeline.Edge
	Delta  float64
}

func (p ResizeClip) Apply(doc skeleton.Skeleton) skeleton.Skeleton {
	if tracks, ok := timeline.ResizeClip(doc.Tracks, p.ClipID, p.Edge, p.Delta); ok {
		doc.Tracks = tracks
	}
	return doc
}

// Reset replaces the document wholesale, as on restore from history.
type Reset struct {
	Doc skeleton.Skeleton
}

func (p Reset) Apply(skeleton.Skeleton) skeleton.Skeleton {
	return skeleton.Clone(p.Doc)
}
