// pkg/pipeline/images.go

package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ASHISH26940/video-studio-api/pkg/document"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
	"golang.org/x/sync/errgroup"
)

const stageImages = "images"

// imageCounter counts finished wave 1 and wave 2 jobs, failed or not, and
// fires once when the last one lands.
type imageCounter struct {
	total  int32
	done   atomic.Int32
	onDone func()
}

func (c *imageCounter) finish() {
	if c.done.Add(1) == c.total {
		c.onDone()
	}
}

// generateImages runs the roster wave and then the per-scene composite wave.
// Every job inside a wave runs concurrently; per-entity failures are logged
// and never stop their siblings.
func (o *Orchestrator) generateImages(ctx context.Context, p *Project) {
	doc := p.Doc.Doc()
	total := len(doc.Characters) + len(doc.SceneDesigns) + len(doc.Scenes)

	p.startStage(stageImages, "generating character, location and scene images")
	if p.Tracker != nil {
		p.Tracker.SetTotal(total)
	}
	counter := &imageCounter{
		total: int32(total),
		onDone: func() {
			entityLog(p, stageImages, "").Infof("generateImages: all %d image jobs finished", total)
			o.saveHistory(ctx, p)
		},
	}
	if total == 0 {
		counter.onDone()
		return
	}
	step := func(label string) {
		if p.Tracker != nil {
			p.Tracker.Increment(label)
		}
		counter.finish()
	}

	var roster errgroup.Group
	for _, c := range doc.Characters {
		c := c
		roster.Go(func() error {
			defer step("character " + c.Prototype)
			o.characterImage(ctx, p, doc.ArtStyle, c, false)
			return nil
		})
	}
	for _, d := range doc.SceneDesigns {
		d := d
		roster.Go(func() error {
			defer step("location " + d.Prototype)
			o.sceneDesignImage(ctx, p, doc.ArtStyle, d, false)
			return nil
		})
	}
	_ = roster.Wait()

	var scenes errgroup.Group
	for i, s := range doc.Scenes {
		s, n := s, i+1
		scenes.Go(func() error {
			defer step(fmt.Sprintf("scene %d", n))
			o.sceneImage(ctx, p, s.ID, false)
			return nil
		})
	}
	_ = scenes.Wait()
}

// characterImage renders a character sheet unless the character already has
// one and force is not set.
func (o *Orchestrator) characterImage(ctx context.Context, p *Project, artStyle string, c skeleton.Character, force bool) error {
	logger := entityLog(p, stageImages, c.ID)
	if c.ImageURL != "" && !force {
		p.cacheImage(c.ID, c.ImageURL)
		return nil
	}
	key := "image:" + c.ID
	if !p.claim(key) {
		logger.Debug("characterImage: already in flight")
		return nil
	}
	defer p.release(key)

	res, err := o.deps.Images.GenerateImage(ctx, characterPrompt(artStyle, c), skeleton.CharacterSheetSize, nil)
	if err != nil {
		logger.Errorf("characterImage: generation failed for %q: %v", c.Prototype, err)
		return err
	}
	p.cacheImage(c.ID, res.URL)
	_, err = p.Doc.Apply(ctx, document.PatchEntity{
		Collection: skeleton.Characters,
		ID:         c.ID,
		Fields:     skeleton.Fields{ImageURL: skeleton.String(res.URL)},
	})
	return err
}

func (o *Orchestrator) sceneDesignImage(ctx context.Context, p *Project, artStyle string, d skeleton.SceneDesign, force bool) error {
	logger := entityLog(p, stageImages, d.ID)
	if d.ImageURL != "" && !force {
		p.cacheImage(d.ID, d.ImageURL)
		return nil
	}
	key := "image:" + d.ID
	if !p.claim(key) {
		logger.Debug("sceneDesignImage: already in flight")
		return nil
	}
	defer p.release(key)

	res, err := o.deps.Images.GenerateImage(ctx, sceneDesignPrompt(artStyle, d), skeleton.SceneDesignSize, nil)
	if err != nil {
		logger.Errorf("sceneDesignImage: generation failed for %q: %v", d.Prototype, err)
		return err
	}
	p.cacheImage(d.ID, res.URL)
	_, err = p.Doc.Apply(ctx, document.PatchEntity{
		Collection: skeleton.SceneDesigns,
		ID:         d.ID,
		Fields:     skeleton.Fields{ImageURL: skeleton.String(res.URL)},
	})
	return err
}

// sceneImage composes the first frame of a scene from the roster images it
// references. References to missing entities or entities without an image
// are skipped.
func (o *Orchestrator) sceneImage(ctx context.Context, p *Project, sceneID string, force bool) error {
	logger := entityLog(p, stageImages, sceneID)
	doc := p.Doc.Doc()
	scene, idx := doc.SceneByID(sceneID)
	if idx < 0 {
		return nil
	}
	if scene.ImageURL != "" && !force {
		return nil
	}
	key := "image:" + sceneID
	if !p.claim(key) {
		logger.Debug("sceneImage: already in flight")
		return nil
	}
	defer p.release(key)

	var (
		chars []skeleton.Character
		refs  []string
	)
	for _, id := range scene.CharacterIDs {
		c, ok := doc.CharacterByID(id)
		if !ok {
			continue
		}
		if url := o.rosterImage(p, c.ID, c.ImageURL); url != "" {
			chars = append(chars, c)
			refs = append(refs, url)
		}
	}
	var design *skeleton.SceneDesign
	if d, ok := doc.SceneDesignByID(scene.SceneID); ok {
		if url := o.rosterImage(p, d.ID, d.ImageURL); url != "" {
			design = &d
			refs = append(refs, url)
		}
	}

	prompt := compositePrompt(doc.ArtStyle, scene, chars, design)
	res, err := o.deps.Images.GenerateImage(ctx, prompt, doc.AspectRatio.OrDefault().Resolution(), refs)
	if err != nil {
		logger.Errorf("sceneImage: generation failed: %v", err)
		return err
	}
	_, err = p.Doc.Apply(ctx, document.SetSceneMedia{SceneID: sceneID, ImageURL: skeleton.String(res.URL)})
	return err
}

// rosterImage prefers the run-local cache over the document value.
func (o *Orchestrator) rosterImage(p *Project, id, docURL string) string {
	if url := p.cachedImage(id); url != "" {
		return url
	}
	return docURL
}
