// pkg/pipeline/audio.go

package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/db"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

const (
	stageAudio       = "audio"
	audioContentType = "audio/mpeg"
)

// AssetURL is where the API serves a stored asset.
func AssetURL(id string) string {
	return "/api/assets/" + id
}

// audioAssetID keys narration by project as well as scene, since scene ids
// repeat across projects restored from the same history item.
func audioAssetID(p *Project, sceneID string) string {
	return p.ID + "-" + sceneID
}

// GenerateAudio narrates one scene's dialogue, stores the audio under a
// project-scoped id and stretches the scene to the narration, rounded up to a whole
// second.
func (o *Orchestrator) GenerateAudio(ctx context.Context, p *Project, sceneID string) error {
	logger := entityLog(p, stageAudio, sceneID)
	scene, idx := p.Doc.Doc().SceneByID(sceneID)
	if idx < 0 {
		return apperr.NewNotFoundError(fmt.Sprintf("scene %s not found", sceneID))
	}
	if scene.DialogueContent == "" {
		return apperr.NewValidationError(fmt.Sprintf("scene %s has no dialogue to narrate", sceneID), nil)
	}
	key := "audio:" + sceneID
	if !p.claim(key) {
		return apperr.NewValidationError(fmt.Sprintf("audio for scene %s is already being generated", sceneID), nil)
	}
	defer p.release(key)

	voice := genclient.ResolveVoiceID(scene.VoiceActor)
	if genclient.VoiceName(voice) == voice {
		voice = genclient.DefaultVoiceID
	}
	data, err := o.deps.Speech.Synthesize(ctx, genclient.SpeechRequest{Text: scene.DialogueContent, VoiceID: voice})
	if err != nil {
		logger.Errorf("GenerateAudio: synthesis failed: %v", err)
		return err
	}
	assetID := audioAssetID(p, sceneID)
	if o.deps.Assets != nil {
		if err := o.deps.Assets.PutAsset(ctx, assetID, db.AssetAudio, audioContentType, data); err != nil {
			logger.Errorf("GenerateAudio: storing audio failed: %v", err)
			return err
		}
	}

	fields := skeleton.Fields{AudioURL: skeleton.String(AssetURL(assetID))}
	seconds, err := o.deps.Prober.MeasureAudio(ctx, data)
	switch {
	case err != nil:
		logger.Warnf("GenerateAudio: could not measure audio, keeping duration: %v", err)
	case seconds > 0:
		d := skeleton.Fixed(math.Ceil(seconds))
		fields.Duration = &d
	}

	if _, err := p.Doc.Apply(ctx, document.PatchEntity{Collection: skeleton.Scenes, ID: sceneID, Fields: fields}); err != nil {
		return err
	}
	logger.Infof("GenerateAudio: attached %d bytes of audio (%.2fs)", len(data), seconds)
	return nil
}

// GenerateMissingAudio narrates every scene that has dialogue but no audio,
// one at a time with AudioDelay between requests. It returns how many scenes
// got audio. Per-scene failures are logged and skipped.
func (o *Orchestrator) GenerateMissingAudio(ctx context.Context, p *Project) (int, error) {
	var pending []string
	for _, s := range p.Doc.Doc().Scenes {
		if s.DialogueContent != "" && s.AudioURL == "" {
			pending = append(pending, s.ID)
		}
	}

	p.startStage(stageAudio, fmt.Sprintf("narrating %d scenes", len(pending)))
	if p.Tracker != nil {
		p.Tracker.SetTotal(len(pending))
	}

	generated := 0
	for i, id := range pending {
		if i > 0 {
			if err := o.sleep(ctx, o.limits.AudioDelay); err != nil {
				return generated, err
			}
		}
		if err := o.GenerateAudio(ctx, p, id); err == nil {
			generated++
		}
		if p.Tracker != nil {
			p.Tracker.Increment("scene " + id)
		}
	}

	o.saveHistory(ctx, p)
	if p.Tracker != nil {
		p.Tracker.Complete(fmt.Sprintf("narrated %d of %d scenes", generated, len(pending)))
	}
	return generated, ctx.Err()
}
