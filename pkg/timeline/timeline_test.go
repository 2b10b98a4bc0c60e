package timeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/google/go-cmp/cmp"
)

func scenes() []skeleton.Scene {
	return []skeleton.Scene{
		{ID: "s1abcdef", VisualDescription: "dawn", AudioDesign: "waves", DialogueContent: "Morning already?", Duration: skeleton.Fixed(3), ImageURL: "http://i/1"},
		{ID: "s2", VisualDescription: "harbor", Duration: skeleton.Auto(), VideoURL: "http://v/2"},
		{ID: "s3", VisualDescription: "boat", AudioURL: "/api/assets/s3", Duration: skeleton.Fixed(5)},
		{ID: "s4", VisualDescription: "sunset", DialogueContent: "Home.", Duration: skeleton.Fixed(2.5)},
	}
}

func starts(clips []skeleton.Clip) []float64 {
	out := make([]float64, len(clips))
	for i, c := range clips {
		out[i] = c.StartTime
	}
	return out
}

func TestRebuildTracksLayout(t *testing.T) {
	tracks := RebuildTracks(scenes())
	if len(tracks) != 3 || tracks[0].ID != VideoTrackID || tracks[1].ID != AudioTrackID || tracks[2].ID != TextTrackID {
		t.Fatalf("unexpected track layout %+v", tracks)
	}

	if diff := cmp.Diff([]float64{0, 3, 6, 11}, starts(tracks[0].Clips)); diff != "" {
		t.Errorf("video starts (-want +got):\n%s", diff)
	}
	// audio and text share the video clock even though they skip scenes
	if diff := cmp.Diff([]float64{0, 6}, starts(tracks[1].Clips)); diff != "" {
		t.Errorf("audio starts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 11}, starts(tracks[2].Clips)); diff != "" {
		t.Errorf("text starts (-want +got):\n%s", diff)
	}
	if got := TotalDuration(tracks); got != 13.5 {
		t.Errorf("TotalDuration = %v, want 13.5", got)
	}

	v := tracks[0].Clips[0]
	if v.Title != "Scene s1ab" || v.ImageURL != "http://i/1" || v.Content != "dawn" {
		t.Errorf("unexpected video clip %+v", v)
	}
	if tracks[2].Clips[0].Title != "Morning already?" {
		t.Errorf("unexpected text title %q", tracks[2].Clips[0].Title)
	}
}

func TestClipIDDerivation(t *testing.T) {
	ss := scenes()
	tracks := RebuildTracks(ss)
	ids := map[string]bool{}
	for _, tr := range tracks {
		for _, c := range tr.Clips {
			ids[c.ID] = true
		}
	}
	for _, s := range ss {
		if !ids["v-"+s.ID] {
			t.Errorf("missing video clip for %s", s.ID)
		}
		wantAudio := s.AudioDesign != "" || s.AudioURL != ""
		if ids["a-"+s.ID] != wantAudio {
			t.Errorf("audio clip presence for %s = %v, want %v", s.ID, ids["a-"+s.ID], wantAudio)
		}
		if ids["t-"+s.ID] != (s.DialogueContent != "") {
			t.Errorf("text clip presence for %s wrong", s.ID)
		}
	}
}

func TestRebuildTracksIsDeterministic(t *testing.T) {
	ss := scenes()
	if diff := cmp.Diff(RebuildTracks(ss), RebuildTracks(ss)); diff != "" {
		t.Fatalf("two rebuilds differ:\n%s", diff)
	}
}

func TestRippleMatchesRebuild(t *testing.T) {
	ss := scenes()
	for i := range ss {
		for _, d := range []skeleton.Duration{skeleton.Fixed(7), skeleton.Fixed(0.1), skeleton.Auto(), skeleton.Fixed(1.3)} {
			before := RebuildTracks(ss)
			changed := append([]skeleton.Scene(nil), ss...)
			changed[i].Duration = d

			got := Ripple(before, ss[i].ID, d)
			want := RebuildTracks(changed)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("scene %d duration %v: ripple differs from rebuild (-want +got):\n%s", i, d.Wire(), diff)
			}
		}
	}
}

func TestRippleMatchesRebuildRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(12)
		ss := make([]skeleton.Scene, n)
		for i := range ss {
			ss[i] = skeleton.Scene{ID: fmt.Sprintf("s%d", i), Duration: skeleton.Fixed(float64(rng.Intn(40)) / 10)}
			if rng.Intn(2) == 0 {
				ss[i].AudioDesign = "sfx"
			}
			if rng.Intn(3) == 0 {
				ss[i].DialogueContent = "line"
			}
		}
		i := rng.Intn(n)
		d := skeleton.Fixed(float64(rng.Intn(120)) / 10)

		changed := append([]skeleton.Scene(nil), ss...)
		changed[i].Duration = d
		if diff := cmp.Diff(RebuildTracks(changed), Ripple(RebuildTracks(ss), ss[i].ID, d)); diff != "" {
			t.Fatalf("round %d: ripple differs from rebuild:\n%s", round, diff)
		}
	}
}

func TestRippleKeepsInputUntouched(t *testing.T) {
	before := RebuildTracks(scenes())
	snapshot := RebuildTracks(scenes())
	_ = Ripple(before, "s1abcdef", skeleton.Fixed(10))
	if diff := cmp.Diff(snapshot, before); diff != "" {
		t.Fatalf("ripple mutated its input:\n%s", diff)
	}
}

func TestRippleUnknownSceneIsNoop(t *testing.T) {
	before := RebuildTracks(scenes())
	if diff := cmp.Diff(before, Ripple(before, "nope", skeleton.Fixed(9))); diff != "" {
		t.Fatalf("unexpected change:\n%s", diff)
	}
}

func TestEndToEndMeasuredDuration(t *testing.T) {
	ss := []skeleton.Scene{
		{ID: "a", Duration: skeleton.Fixed(3)},
		{ID: "b", Duration: skeleton.Auto()},
		{ID: "c", Duration: skeleton.Fixed(5)},
	}
	tracks := RebuildTracks(ss)
	// audio measurement resolves the Auto scene to 4s
	tracks = Ripple(tracks, "b", skeleton.Fixed(4))

	if diff := cmp.Diff([]float64{0, 3, 7}, starts(tracks[0].Clips)); diff != "" {
		t.Fatalf("starts (-want +got):\n%s", diff)
	}
	if got := TotalDuration(tracks); got != 12 {
		t.Fatalf("total = %v, want 12", got)
	}
}

func TestResize(t *testing.T) {
	c := skeleton.Clip{ID: "v-x", StartTime: 2, Duration: 3}

	if got := ResizeRight(c, 1.5); got.Duration != 4.5 || got.StartTime != 2 {
		t.Errorf("ResizeRight grow = %+v", got)
	}
	if got := ResizeRight(c, -10); got.Duration != MinClipSeconds {
		t.Errorf("ResizeRight floor = %+v", got)
	}

	got := ResizeLeft(c, 1)
	if got.StartTime != 3 || got.Duration != 2 {
		t.Errorf("ResizeLeft shrink = %+v", got)
	}
	got = ResizeLeft(c, -5)
	if got.StartTime != 0 || got.Duration != 5 {
		t.Errorf("ResizeLeft clamps at zero = %+v", got)
	}
	got = ResizeLeft(c, 10)
	if got.End() != c.End() || got.Duration != MinClipSeconds {
		t.Errorf("ResizeLeft keeps end and floor = %+v", got)
	}
}

func TestResizeClip(t *testing.T) {
	tracks := RebuildTracks(scenes())
	out, ok := ResizeClip(tracks, "v-s2", EdgeRight, 1)
	if !ok {
		t.Fatal("clip not found")
	}
	if out[0].Clips[1].Duration != 4 || tracks[0].Clips[1].Duration != 3 {
		t.Fatalf("resize wrong or input mutated: %v / %v", out[0].Clips[1].Duration, tracks[0].Clips[1].Duration)
	}
	if _, ok := ResizeClip(tracks, "v-missing", EdgeLeft, 1); ok {
		t.Fatal("expected missing clip to be reported")
	}
}

func TestActiveClipAt(t *testing.T) {
	tracks := RebuildTracks(scenes())
	c, ok := ActiveClipAt(tracks[0], 3.5)
	if !ok || c.SceneID != "s2" {
		t.Fatalf("got %+v %v", c, ok)
	}
	if _, ok := ActiveClipAt(tracks[0], 100); ok {
		t.Fatal("no clip should be active past the end")
	}
}
