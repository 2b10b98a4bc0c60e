package db

import (
	"testing"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTripDropsTracks(t *testing.T) {
	doc := skeleton.Skeleton{
		Theme:       "Harbor",
		AspectRatio: skeleton.Ratio9x16,
		Characters:  []skeleton.Character{{ID: "c1", Prototype: "Mei", ImageURL: "http://i/c1"}},
		Scenes: []skeleton.Scene{
			{ID: "s1", VisualDescription: "dawn", Duration: skeleton.Auto()},
			{ID: "s2", VisualDescription: "dusk", Duration: skeleton.Fixed(5), AudioURL: "/api/assets/s2"},
		},
		Tracks: []skeleton.Track{{ID: "track-1"}},
	}

	encoded, err := EncodeSnapshot(doc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSnapshot(encoded)
	if err != nil {
		t.Fatal(err)
	}

	want := doc
	want.Tracks = nil
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(skeleton.Duration{})); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestDecodeLegacyBareDocument(t *testing.T) {
	got, err := DecodeSnapshot(`{"theme":"Old","scenes":[{"id":"s1","duration":"4"}]}`)
	if err != nil {
		t.Fatal(err)
	}
	if got.Theme != "Old" || got.Scenes[0].Duration.Seconds(0) != 4 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeRejectsFutureAndGarbage(t *testing.T) {
	if _, err := DecodeSnapshot(`{"version":99,"skeleton":{}}`); !apperr.IsParseError(err) {
		t.Fatalf("future version: %v", err)
	}
	if _, err := DecodeSnapshot(`not json`); !apperr.IsParseError(err) {
		t.Fatalf("garbage: %v", err)
	}
}
