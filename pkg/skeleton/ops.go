package skeleton

import (
	"encoding/json"
	"fmt"
)

// DefaultSceneSeconds is used wherever a scene has no usable duration.
const DefaultSceneSeconds = 3

// Metadata is a delta over the document's top-level fields. Nil fields are left untouched.
type Metadata struct {
	Theme         *string       `json:"theme,omitempty"`
	StoryOverview *string       `json:"storyOverview,omitempty"`
	ArtStyle      *string       `json:"artStyle,omitempty"`
	Characters    []Character   `json:"characters,omitempty"`
	SceneDesigns  []SceneDesign `json:"sceneDesigns,omitempty"`
}

// MetadataFromMap converts the loose output of a partial parse into a Metadata
// delta. Fields with the wrong type are ignored. Rosters are only taken when
// they decode cleanly.
func MetadataFromMap(m map[string]any) Metadata {
	var md Metadata
	str := func(key string) *string {
		if v, ok := m[key].(string); ok {
			return &v
		}
		return nil
	}
	md.Theme = str("theme")
	md.StoryOverview = str("storyOverview")
	md.ArtStyle = str("artStyle")
	if raw, ok := m["characters"]; ok {
		var cs []Character
		if remarshal(raw, &cs) == nil {
			md.Characters = cs
		}
	}
	if raw, ok := m["sceneDesigns"]; ok {
		var ds []SceneDesign
		if remarshal(raw, &ds) == nil {
			md.SceneDesigns = ds
		}
	}
	return md
}

// MergeMetadata applies md over doc. Later values overwrite earlier ones.
func MergeMetadata(doc Skeleton, md Metadata) Skeleton {
	if md.Theme != nil {
		doc.Theme = *md.Theme
	}
	if md.StoryOverview != nil {
		doc.StoryOverview = *md.StoryOverview
	}
	if md.ArtStyle != nil {
		doc.ArtStyle = *md.ArtStyle
	}
	if md.Characters != nil {
		doc.Characters = append([]Character(nil), md.Characters...)
	}
	if md.SceneDesigns != nil {
		doc.SceneDesigns = append([]SceneDesign(nil), md.SceneDesigns...)
	}
	return doc
}

// WithScenes swaps the scene list. The caller owns rebuilding the tracks.
func WithScenes(doc Skeleton, scenes []Scene) Skeleton {
	doc.Scenes = append([]Scene(nil), scenes...)
	return doc
}

type Collection string

const (
	Characters   Collection = "characters"
	SceneDesigns Collection = "sceneDesigns"
	Scenes       Collection = "scenes"
)

func (c Collection) Valid() bool {
	return c == Characters || c == SceneDesigns || c == Scenes
}

// Fields is a shallow patch for one entity. Only non-nil fields are applied,
// and fields that do not exist on the target collection are ignored.
type Fields struct {
	Prototype         *string   `json:"prototype,omitempty"`
	Description       *string   `json:"description,omitempty"`
	ImageURL          *string   `json:"imageUrl,omitempty"`
	VisualDescription *string   `json:"visualDescription,omitempty"`
	CharacterIDs      []string  `json:"characterIds,omitempty"`
	SceneID           *string   `json:"sceneId,omitempty"`
	CameraDesign      *string   `json:"cameraDesign,omitempty"`
	AudioDesign       *string   `json:"audioDesign,omitempty"`
	VoiceActor        *string   `json:"voiceActor,omitempty"`
	DialogueContent   *string   `json:"dialogueContent,omitempty"`
	Duration          *Duration `json:"duration,omitempty"`
	VideoURL          *string   `json:"videoUrl,omitempty"`
	AudioURL          *string   `json:"audioUrl,omitempty"`
}

// String is a convenience for building Fields literals.
func String(s string) *string { return &s }

// PatchEntity merges f into the entity with the given id. A missing id is a
// no-op: a finished job may race a user deleting the entity it was for.
func PatchEntity(doc Skeleton, coll Collection, id string, f Fields) Skeleton {
	switch coll {
	case Characters:
		for i, c := range doc.Characters {
			if c.ID != id {
				continue
			}
			next := append([]Character(nil), doc.Characters...)
			setString(&next[i].Prototype, f.Prototype)
			setString(&next[i].Description, f.Description)
			setString(&next[i].ImageURL, f.ImageURL)
			doc.Characters = next
			return doc
		}
	case SceneDesigns:
		for i, d := range doc.SceneDesigns {
			if d.ID != id {
				continue
			}
			next := append([]SceneDesign(nil), doc.SceneDesigns...)
			setString(&next[i].Prototype, f.Prototype)
			setString(&next[i].Description, f.Description)
			setString(&next[i].ImageURL, f.ImageURL)
			doc.SceneDesigns = next
			return doc
		}
	case Scenes:
		for i, s := range doc.Scenes {
			if s.ID != id {
				continue
			}
			next := append([]Scene(nil), doc.Scenes...)
			next[i] = patchScene(s, f)
			doc.Scenes = next
			return doc
		}
	}
	return doc
}

func patchScene(s Scene, f Fields) Scene {
	setString(&s.VisualDescription, f.VisualDescription)
	setString(&s.SceneID, f.SceneID)
	setString(&s.CameraDesign, f.CameraDesign)
	setString(&s.AudioDesign, f.AudioDesign)
	setString(&s.VoiceActor, f.VoiceActor)
	setString(&s.DialogueContent, f.DialogueContent)
	setString(&s.ImageURL, f.ImageURL)
	setString(&s.VideoURL, f.VideoURL)
	setString(&s.AudioURL, f.AudioURL)
	if f.CharacterIDs != nil {
		s.CharacterIDs = append([]string(nil), f.CharacterIDs...)
	}
	if f.Duration != nil {
		s.Duration = *f.Duration
	}
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// NormalizeScenes finalizes a storyboard: every scene gets an id, an unset
// duration becomes DefaultSceneSeconds and the voice actor is mapped to a
// catalog id by resolveVoice.
func NormalizeScenes(scenes []Scene, resolveVoice func(string) string, newID func() string) []Scene {
	out := make([]Scene, len(scenes))
	seen := make(map[string]bool, len(scenes))
	for i, s := range scenes {
		if s.ID == "" || seen[s.ID] {
			s.ID = newID()
		}
		seen[s.ID] = true
		if !s.Duration.IsSet() {
			s.Duration = Fixed(DefaultSceneSeconds)
		}
		if resolveVoice != nil {
			s.VoiceActor = resolveVoice(s.VoiceActor)
		}
		out[i] = s
	}
	return out
}

// NormalizeRoster gives ids to characters and scene designs the model forgot to label.
func NormalizeRoster(doc Skeleton, newID func() string) Skeleton {
	if needsIDs(len(doc.Characters), func(i int) string { return doc.Characters[i].ID }) {
		next := append([]Character(nil), doc.Characters...)
		for i := range next {
			if next[i].ID == "" {
				next[i].ID = newID()
			}
		}
		doc.Characters = next
	}
	if needsIDs(len(doc.SceneDesigns), func(i int) string { return doc.SceneDesigns[i].ID }) {
		next := append([]SceneDesign(nil), doc.SceneDesigns...)
		for i := range next {
			if next[i].ID == "" {
				next[i].ID = newID()
			}
		}
		doc.SceneDesigns = next
	}
	return doc
}

func needsIDs(n int, id func(int) string) bool {
	for i := 0; i < n; i++ {
		if id(i) == "" {
			return true
		}
	}
	return false
}

// ScenesFromPartial converts streamed storyboard elements into scenes for
// display. Elements without an id get a positional placeholder so the list is
// stable between chunks; real ids are assigned by NormalizeScenes.
func ScenesFromPartial(elems []map[string]any) []Scene {
	out := make([]Scene, 0, len(elems))
	for i, e := range elems {
		var s Scene
		if err := remarshal(e, &s); err != nil {
			continue
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("pending-%d", i+1)
		}
		out = append(out, s)
	}
	return out
}

func remarshal(in any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
