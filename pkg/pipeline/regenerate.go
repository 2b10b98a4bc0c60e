// pkg/pipeline/regenerate.go

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/extract"
	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"github.com/ASHISH26940/video-studio-api/pkg/timeline"
	log "github.com/sirupsen/logrus"
)

// AssetKind names what Regenerate should redo.
type AssetKind string

const (
	KindCharacterImage   AssetKind = "characterImage"
	KindSceneDesignImage AssetKind = "sceneDesignImage"
	KindSceneImage       AssetKind = "sceneImage"
	KindSceneVideo       AssetKind = "sceneVideo"
	KindSceneAudio       AssetKind = "sceneAudio"
)

func (k AssetKind) Valid() bool {
	switch k {
	case KindCharacterImage, KindSceneDesignImage, KindSceneImage, KindSceneVideo, KindSceneAudio:
		return true
	}
	return false
}

// Regenerate redoes one asset even when the entity already has it. This is
// the only path that replaces an existing asset.
func (o *Orchestrator) Regenerate(ctx context.Context, p *Project, kind AssetKind, entityID string) error {
	doc := p.Doc.Doc()
	var err error
	switch kind {
	case KindCharacterImage:
		c, ok := doc.CharacterByID(entityID)
		if !ok {
			return apperr.NewNotFoundError(fmt.Sprintf("character %s not found", entityID))
		}
		err = o.characterImage(ctx, p, doc.ArtStyle, c, true)
	case KindSceneDesignImage:
		d, ok := doc.SceneDesignByID(entityID)
		if !ok {
			return apperr.NewNotFoundError(fmt.Sprintf("scene design %s not found", entityID))
		}
		err = o.sceneDesignImage(ctx, p, doc.ArtStyle, d, true)
	case KindSceneImage:
		if _, i := doc.SceneByID(entityID); i < 0 {
			return apperr.NewNotFoundError(fmt.Sprintf("scene %s not found", entityID))
		}
		err = o.sceneImage(ctx, p, entityID, true)
	case KindSceneVideo:
		scene, i := doc.SceneByID(entityID)
		if i < 0 {
			return apperr.NewNotFoundError(fmt.Sprintf("scene %s not found", entityID))
		}
		if scene.ImageURL == "" {
			return apperr.NewValidationError(fmt.Sprintf("scene %s needs an image before it can get a video", entityID), nil)
		}
		var lastFrame string
		if i+1 < len(doc.Scenes) {
			lastFrame = doc.Scenes[i+1].ImageURL
		}
		err = o.sceneVideo(ctx, p, doc.AspectRatio, scene, lastFrame)
	case KindSceneAudio:
		err = o.GenerateAudio(ctx, p, entityID)
	default:
		return apperr.NewValidationError(fmt.Sprintf("unknown asset kind %q", kind), nil)
	}
	if err != nil {
		return err
	}
	o.saveHistory(ctx, p)
	return nil
}

// Refine asks the model to edit the current skeleton. The reply is returned
// as is; when it carries a skeleton, that skeleton replaces the metadata,
// rosters and scenes it names and changed is true.
func (o *Orchestrator) Refine(ctx context.Context, p *Project, instruction string) (reply string, changed bool, err error) {
	messages, err := refineMessages(p.Doc.Doc(), instruction)
	if err != nil {
		return "", false, err
	}
	var buf strings.Builder
	if err := o.deps.Chat.ChatStream(ctx, messages, false, func(chunk string) {
		buf.WriteString(chunk)
	}); err != nil {
		return "", false, fmt.Errorf("streaming refinement: %w", err)
	}
	reply = buf.String()
	if !strings.Contains(reply, "{") {
		return reply, false, nil
	}

	updated, err := extract.Extract[skeleton.Skeleton](reply)
	if err != nil {
		entityLog(p, "refine", "").Warnf("Refine: reply carried no usable skeleton: %v", err)
		return reply, false, nil
	}

	_, err = p.Doc.Apply(ctx, document.PatchFunc(func(doc skeleton.Skeleton) skeleton.Skeleton {
		return o.applyRefinement(doc, updated)
	}))
	if err != nil {
		return reply, false, err
	}
	o.saveHistory(ctx, p)
	log.WithField("project", p.ID).Info("Refine: skeleton updated")
	return reply, true, nil
}

func (o *Orchestrator) applyRefinement(doc, updated skeleton.Skeleton) skeleton.Skeleton {
	var md skeleton.Metadata
	if updated.Theme != "" {
		md.Theme = &updated.Theme
	}
	if updated.StoryOverview != "" {
		md.StoryOverview = &updated.StoryOverview
	}
	if updated.ArtStyle != "" {
		md.ArtStyle = &updated.ArtStyle
	}
	md.Characters = updated.Characters
	md.SceneDesigns = updated.SceneDesigns
	doc = skeleton.MergeMetadata(doc, md)
	doc = skeleton.NormalizeRoster(doc, o.newID)

	if updated.Scenes != nil {
		scenes := skeleton.NormalizeScenes(updated.Scenes, genclient.ResolveVoiceID, o.newID)
		doc = skeleton.WithScenes(doc, scenes)
		doc.Tracks = timeline.RebuildTracks(doc.Scenes)
	}
	return doc
}
