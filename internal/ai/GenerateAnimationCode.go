package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"animation_panel_server/internal/ai/prompts"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/utils"

	openai "github.com/sashabaranov/go-openai"
)

// GenerateAnimationCode asks the model for files implementing the animation
// described by animationSpec.
func (g *Generator) GenerateAnimationCode(ctx context.Context, userQuery string, animationSpec string) ([]types.GeneratedFile, error) {
	fullPrompt, systemPrompt := prompts.GetAnimationCodePrompt(userQuery, animationSpec)

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fullPrompt},
		},
		MaxTokens:   4096,
		Temperature: 0.3,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil && utils.ShouldRetry(err) {
		log.Printf("WARN: OpenAI call for animation code failed, retrying... Error: %v", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.retryDelay):
		}
		resp, err = g.client.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("openai chat completion for animation code failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Printf("WARN: OpenAI usage for failed animation code request: %+v", resp.Usage)
		return nil, errors.New("openai returned empty response for animation code")
	}

	files, err := ParseGeneratedFiles(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	log.Printf("Info: LLM suggested %d animation files.", len(files))
	return files, nil
}

// ParseGeneratedFiles accepts a JSON array of files, optionally fenced in a
// ```json block or wrapped in an object under a common key.
func ParseGeneratedFiles(llmOutput string) ([]types.GeneratedFile, error) {
	cleanedOutput := strings.TrimSpace(llmOutput)
	cleanedOutput = strings.TrimPrefix(cleanedOutput, "```json")
	cleanedOutput = strings.TrimPrefix(cleanedOutput, "```")
	cleanedOutput = strings.TrimSuffix(cleanedOutput, "```")
	cleanedOutput = strings.TrimSpace(cleanedOutput)

	var files []types.GeneratedFile
	err := json.Unmarshal([]byte(cleanedOutput), &files)
	if err != nil {
		var wrapper map[string]json.RawMessage
		if errWrapper := json.Unmarshal([]byte(cleanedOutput), &wrapper); errWrapper != nil {
			return nil, fmt.Errorf("failed to parse LLM JSON output for animation code: %w", err)
		}
		parsed := false
		for _, key := range []string{"files", "changes", "result", "code", "output"} {
			rawFiles, ok := wrapper[key]
			if !ok {
				continue
			}
			if errInner := json.Unmarshal(rawFiles, &files); errInner == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return nil, fmt.Errorf("failed to parse LLM JSON output for animation code: %w", err)
		}
	}

	for i := range files {
		if files[i].Type == "" {
			files[i].Type = utils.DetermineFileType(files[i].Filename)
		}
	}
	return files, nil
}
