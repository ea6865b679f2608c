// Package plugin is the registration object the host toolbar talks to.
// Hooks never return a fault to the host: failures become the fallback
// panel or an empty context list.
package plugin

import (
	"context"
	"fmt"

	"animation_panel_server/internal/ai/prompts"
	"animation_panel_server/internal/memo"
	"animation_panel_server/internal/panel"
	"animation_panel_server/internal/session"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/utils"
)

// Hook names advertised in the manifest.
const (
	HookOnOpen       = "onOpen"
	HookOnPromptSend = "onPromptSend"
)

// Info identifies the plugin in the host's toolbar.
type Info struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func DefaultInfo() Info {
	return Info{
		Name:        "animation-config",
		DisplayName: "Animation",
		Description: "Configure an animation for the selected elements and send its specification with your prompt",
		Icon:        "sparkles",
	}
}

type Manifest struct {
	Info
	Hooks []string `json:"hooks"`
}

// Rendered is a cached prompt generation result.
type Rendered struct {
	Text string
	OK   bool
}

type generateFunc func(*types.AnimationConfig, []types.SelectedElement) (string, bool)

type Plugin struct {
	info     Info
	sessions *session.Store
	rendered *memo.Cache[Rendered]
	faults   *utils.FaultReporter
	generate generateFunc
}

func New(info Info, sessions *session.Store, rendered *memo.Cache[Rendered], faults *utils.FaultReporter) *Plugin {
	if rendered == nil {
		rendered = memo.New[Rendered](memo.DefaultTTL)
	}
	if faults == nil {
		faults = utils.NewFaultReporter(utils.DefaultFaultWindow, utils.DefaultFaultCap)
	}
	return &Plugin{
		info:     info,
		sessions: sessions,
		rendered: rendered,
		faults:   faults,
		generate: prompts.GenerateAnimationPrompt,
	}
}

func (p *Plugin) Manifest() Manifest {
	return Manifest{Info: p.info, Hooks: []string{HookOnOpen, HookOnPromptSend}}
}

func (p *Plugin) Sessions() *session.Store { return p.sessions }

func (p *Plugin) Faults() *utils.FaultReporter { return p.faults }

// OnOpen starts a panel session and returns its view. An internal fault
// yields the fallback view and the error that caused it.
func (p *Plugin) OnOpen(ctx context.Context) (view panel.View, err error) {
	defer func() {
		if err != nil {
			view = panel.Fallback()
		}
	}()
	defer utils.Recover(p.faults, HookOnOpen, &err)

	if err := ctx.Err(); err != nil {
		return panel.View{}, err
	}
	s := p.sessions.Open()
	return panel.Build(s), nil
}

// OnPromptSend returns the context to append to the user's prompt, or nil
// when the panel has nothing to contribute.
func (p *Plugin) OnPromptSend(ctx context.Context, sessionID, prompt string, elements []types.SelectedElement) (snippets []types.ContextSnippet) {
	var err error
	defer func() {
		if err != nil {
			snippets = nil
		}
	}()
	defer utils.Recover(p.faults, HookOnPromptSend, &err)

	if len(elements) == 0 || ctx.Err() != nil {
		return nil
	}
	s, lookupErr := p.sessions.Get(sessionID)
	if lookupErr != nil {
		return nil
	}
	cfg := s.Snapshot()

	text, ok, renderErr := p.render(&cfg, elements)
	if renderErr != nil {
		p.faults.Report(HookOnPromptSend, renderErr)
		return nil
	}
	if !ok {
		return nil
	}
	return []types.ContextSnippet{{PromptContextName: prompts.AnimationContextName, Content: text}}
}

// render memoizes prompt generation on the snapshot and element set.
func (p *Plugin) render(cfg *types.AnimationConfig, elements []types.SelectedElement) (string, bool, error) {
	key, err := memo.Fingerprint(cfg, elements)
	if err != nil {
		return "", false, fmt.Errorf("fingerprint prompt inputs: %w", err)
	}
	r := memo.Memoize(p.rendered, key, func() Rendered {
		text, ok := p.generate(cfg, elements)
		return Rendered{Text: text, OK: ok}
	})
	return r.Text, r.OK, nil
}

// Render produces the prompt block for the current snapshot of a session
// without going through the prompt-send boundary.
func (p *Plugin) Render(sessionID string, elements []types.SelectedElement) (string, bool, error) {
	s, err := p.sessions.Get(sessionID)
	if err != nil {
		return "", false, err
	}
	cfg := s.Snapshot()
	return p.render(&cfg, elements)
}
