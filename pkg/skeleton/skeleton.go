// pkg/skeleton/skeleton.go

package skeleton

// Skeleton is the project document. Scenes are the source of truth and
// Tracks is a cache that can always be rebuilt from them.
//
// Values are treated as immutable: every operation in this package returns a
// new Skeleton and copies any slice it changes, so a reader holding an older
// value never sees it move.
type Skeleton struct {
	Theme         string        `json:"theme"`
	StoryOverview string        `json:"storyOverview"`
	ArtStyle      string        `json:"artStyle"`
	AspectRatio   AspectRatio   `json:"aspectRatio,omitempty"`
	Characters    []Character   `json:"characters"`
	SceneDesigns  []SceneDesign `json:"sceneDesigns"`
	Scenes        []Scene       `json:"scenes"`
	Tracks        []Track       `json:"tracks,omitempty"`
}

type Character struct {
	ID          string `json:"id"`
	Prototype   string `json:"prototype"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// SceneDesign is a reusable background plate. Scenes point at it through SceneID.
type SceneDesign struct {
	ID          string `json:"id"`
	Prototype   string `json:"prototype"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Scene is one shot. CharacterIDs and SceneID may reference entities that no
// longer exist; those references are simply skipped.
type Scene struct {
	ID                string   `json:"id"`
	VisualDescription string   `json:"visualDescription"`
	CharacterIDs      []string `json:"characterIds,omitempty"`
	SceneID           string   `json:"sceneId,omitempty"`
	CameraDesign      string   `json:"cameraDesign"`
	AudioDesign       string   `json:"audioDesign"`
	VoiceActor        string   `json:"voiceActor"`
	DialogueContent   string   `json:"dialogueContent"`
	Duration          Duration `json:"duration"`
	ImageURL          string   `json:"imageUrl,omitempty"`
	VideoURL          string   `json:"videoUrl,omitempty"`
	AudioURL          string   `json:"audioUrl,omitempty"`
}

type ClipType string

const (
	ClipVideo ClipType = "video"
	ClipAudio ClipType = "audio"
	ClipText  ClipType = "text"
)

type Clip struct {
	ID        string   `json:"id"`
	Type      ClipType `json:"type"`
	SceneID   string   `json:"sceneId"`
	StartTime float64  `json:"startTime"`
	Duration  float64  `json:"duration"`
	Content   string   `json:"content"`
	Title     string   `json:"title,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	VideoURL  string   `json:"videoUrl,omitempty"`
	AudioURL  string   `json:"audioUrl,omitempty"`
}

// End is where the clip stops on the timeline.
func (c Clip) End() float64 { return c.StartTime + c.Duration }

type Track struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Clips []Clip `json:"clips"`
}

// SceneByID returns the scene and its index, or -1 when it is missing.
func (s Skeleton) SceneByID(id string) (Scene, int) {
	for i, sc := range s.Scenes {
		if sc.ID == id {
			return sc, i
		}
	}
	return Scene{}, -1
}

func (s Skeleton) CharacterByID(id string) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

func (s Skeleton) SceneDesignByID(id string) (SceneDesign, bool) {
	for _, d := range s.SceneDesigns {
		if d.ID == id {
			return d, true
		}
	}
	return SceneDesign{}, false
}

// Clone returns a deep copy, safe to hand to code that mutates in place
// (JSON encoders, HTTP handlers building responses).
func Clone(s Skeleton) Skeleton {
	out := s
	out.Characters = append([]Character(nil), s.Characters...)
	out.SceneDesigns = append([]SceneDesign(nil), s.SceneDesigns...)
	out.Scenes = make([]Scene, len(s.Scenes))
	for i, sc := range s.Scenes {
		sc.CharacterIDs = append([]string(nil), sc.CharacterIDs...)
		out.Scenes[i] = sc
	}
	if s.Tracks != nil {
		out.Tracks = make([]Track, len(s.Tracks))
		for i, t := range s.Tracks {
			t.Clips = append([]Clip(nil), t.Clips...)
			out.Tracks[i] = t
		}
	}
	return out
}
