// pkg/pipeline/prompts.go

package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ASHISH26940/video-studio-api/pkg/genclient"
	"github.com/ASHISH26940/video-studio-api/pkg/skeleton"
)

const metadataSystemPrompt = `You are a professional video director and screenwriter. Build a first skeleton for a short video on the user's theme.
Answer with one JSON object with these fields:
- theme: the theme
- storyOverview: a short synopsis
- artStyle: a description of the visual style
- characters: a list of {id, prototype, description}. Describe only the character: full body, standing still, plain white background, nothing else in frame.
- sceneDesigns: a list of {id, prototype, description}. Describe only the location: empty, no people, background only.
Output the JSON directly. If you add any explanation, wrap the JSON in a ` + "```json" + ` fenced block.`

const storyboardSystemPrompt = `You are a professional storyboard director. From the video skeleton you are given, write a shot list.
Every shot has these fields:
- visualDescription: what is on screen, including action, environment and lighting
- characterIds: ids of the characters in the shot, taken from the skeleton
- sceneId: id of the scene design the shot takes place in
- cameraDesign: shot type, camera movement, eye level and composition
- audioDesign: ambience and sound effects
- voiceActor: who speaks, such as Narrator or a character name
- dialogueContent: the line that is spoken
- duration: suggested length in seconds, or -1 to let the narration decide
Answer with a JSON array, one element per shot. If you add any explanation, wrap the JSON in a ` + "```json" + ` fenced block.`

const refineSystemPrompt = `You are a video creation assistant helping a user edit a video skeleton.
When the user asks to change any part of it, reply with the complete updated skeleton as JSON in a ` + "```json" + ` fenced block, with fields theme, storyOverview, artStyle, characters, sceneDesigns and scenes.
Keep every existing id unless you add a new item, and keep every existing imageUrl.
Outside the JSON, briefly say what you changed. If the user only asks a question, answer without JSON.`

const safetySuffix = "High quality, original design. Safe for work, no copyrighted characters or logos."

func metadataMessages(prompt string) []genclient.Message {
	return []genclient.Message{
		{Role: genclient.RoleSystem, Content: metadataSystemPrompt},
		{Role: genclient.RoleUser, Content: "Create a video skeleton for this theme: " + prompt},
	}
}

func storyboardMessages(doc skeleton.Skeleton) ([]genclient.Message, error) {
	input, err := json.Marshal(struct {
		Theme         string                 `json:"theme"`
		StoryOverview string                 `json:"storyOverview"`
		ArtStyle      string                 `json:"artStyle"`
		Characters    []skeleton.Character   `json:"characters"`
		SceneDesigns  []skeleton.SceneDesign `json:"sceneDesigns"`
	}{doc.Theme, doc.StoryOverview, doc.ArtStyle, doc.Characters, doc.SceneDesigns})
	if err != nil {
		return nil, fmt.Errorf("encoding storyboard input: %w", err)
	}
	return []genclient.Message{
		{Role: genclient.RoleSystem, Content: storyboardSystemPrompt},
		{Role: genclient.RoleUser, Content: "Write the shot list for this skeleton:\n" + string(input)},
	}, nil
}

func refineMessages(doc skeleton.Skeleton, instruction string) ([]genclient.Message, error) {
	doc.Tracks = nil
	current, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding current skeleton: %w", err)
	}
	return []genclient.Message{
		{Role: genclient.RoleSystem, Content: refineSystemPrompt},
		{Role: genclient.RoleUser, Content: "Current skeleton:\n" + string(current) + "\n\nRequest: " + instruction},
	}, nil
}

func characterPrompt(artStyle string, c skeleton.Character) string {
	return fmt.Sprintf("Art style: %s. Character: %s. Full body, standing, no action, plain white background, character only. %s",
		artStyle, c.Description, safetySuffix)
}

func sceneDesignPrompt(artStyle string, d skeleton.SceneDesign) string {
	return fmt.Sprintf("Art style: %s. Location: %s. No characters, empty scene, background only. %s",
		artStyle, d.Description, safetySuffix)
}

// compositePrompt numbers every reference image in the order they are sent,
// characters first and the scene design last.
func compositePrompt(artStyle string, scene skeleton.Scene, chars []skeleton.Character, design *skeleton.SceneDesign) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Art style: %s.\n", artStyle)
	n := 1
	for _, c := range chars {
		fmt.Fprintf(&b, "[Image %d] is the reference sheet of character %q: %s.\n", n, c.Prototype, c.Description)
		n++
	}
	if design != nil {
		fmt.Fprintf(&b, "[Image %d] is the background plate of location %q: %s.\n", n, design.Prototype, design.Description)
	}
	fmt.Fprintf(&b, "Shot: %s.\nCamera: %s.\n", scene.VisualDescription, scene.CameraDesign)
	b.WriteString("Blend the referenced characters and location into this shot and keep their look consistent. ")
	b.WriteString(safetySuffix)
	return b.String()
}

// videoPrompt adds the spoken line so the model can lip-sync it.
func videoPrompt(scene skeleton.Scene) string {
	if scene.DialogueContent == "" {
		return scene.VisualDescription
	}
	return fmt.Sprintf("%s Character says: %q", scene.VisualDescription, scene.DialogueContent)
}
