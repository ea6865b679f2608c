package prompts

import "fmt"

// GetAnimationCodePrompt builds the user and system prompts used to ask the
// model for an implementation of the configured animation.
func GetAnimationCodePrompt(userQuery string, animationSpec string) (string, string) {
	prompt := `
		User's instruction:
		---
		%s
		---

		Animation to implement:
		---
		%s
		---

		Please respond with new or updated files in the following format:
		` + "```json" + `
		[
		{
			"filename": "src/components/Hero.tsx",
			"type": "tsx",
			"content": "..."
		},
		{
			"filename": "src/styles/hero.css",
			"type": "css",
			"content": "..."
		}
		]
		` + "```" + `

		Only return the files needed for the animation. Do not include duplicates or unrelated files.
	`

	fullprompt := fmt.Sprintf(prompt, userQuery, animationSpec)
	systemPrompt := `
		You are a front-end animation assistant helping to **add an animation to an existing project**.
		Honour every field of the animation specification exactly.
		Respond ONLY with the JSON array containing new or modified files.
	`

	return fullprompt, systemPrompt
}
