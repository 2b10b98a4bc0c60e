package db

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

// SnapshotVersion is the envelope version written by EncodeSnapshot.
const SnapshotVersion = 1

type snapshotEnvelope struct {
	Version  int             `json:"version"`
	Skeleton json.RawMessage `json:"skeleton"`
}

// EncodeSnapshot serializes doc for persistence. Tracks are dropped because
// they are always rebuilt from the scenes on restore.
func EncodeSnapshot(doc skeleton.Skeleton) (string, error) {
	doc.Tracks = nil
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding skeleton: %w", err)
	}
	out, err := json.Marshal(snapshotEnvelope{Version: SnapshotVersion, Skeleton: raw})
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(out), nil
}

// DecodeSnapshot reads a snapshot written by any version up to the current
// one. Bare skeleton documents from before the envelope are accepted too.
func DecodeSnapshot(data string) (skeleton.Skeleton, error) {
	var doc skeleton.Skeleton
	var env snapshotEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return doc, apperr.NewParseError("snapshot is not valid JSON", err)
	}

	payload := []byte(data)
	switch {
	case env.Version > SnapshotVersion:
		return doc, apperr.NewParseError(fmt.Sprintf("snapshot version %d is newer than supported version %d", env.Version, SnapshotVersion), nil)
	case env.Version > 0 && len(bytes.TrimSpace(env.Skeleton)) > 0:
		payload = env.Skeleton
	}

	if err := json.Unmarshal(payload, &doc); err != nil {
		return doc, apperr.NewParseError("snapshot has an unexpected shape", err)
	}
	return doc, nil
}
