package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"animation_panel_server/config"
	"animation_panel_server/internal/ai"
	"animation_panel_server/internal/ai/prompts"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/validation"
)

var errInvalidAnimation = errors.New("animation configuration is invalid")

// readAnimationFile decodes a YAML animation file on top of the defaults,
// so omitted keys keep their default values. "-" reads stdin.
func readAnimationFile(path string, stdin io.Reader) (types.AnimationConfig, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.AnimationConfig{}, fmt.Errorf("read animation file: %w", err)
	}

	cfg := types.DefaultAnimationConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return types.AnimationConfig{}, fmt.Errorf("parse animation file %s: %w", path, err)
	}
	if cfg.CustomOptions == nil {
		cfg.CustomOptions = make(map[string]types.OptionValue)
	}
	return cfg, nil
}

// parseElement reads a "tag#id.class1.class2" shorthand.
func parseElement(s string) (types.SelectedElement, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.SelectedElement{}, errors.New("empty element")
	}
	el := types.SelectedElement{Selector: s}

	rest := s
	cut := strings.IndexAny(rest, "#.")
	if cut < 0 {
		el.TagName = rest
		return el, nil
	}
	el.TagName = rest[:cut]
	rest = rest[cut:]

	if strings.HasPrefix(rest, "#") {
		rest = rest[1:]
		end := strings.IndexByte(rest, '.')
		if end < 0 {
			end = len(rest)
		}
		el.ID = rest[:end]
		rest = rest[end:]
	}
	for _, class := range strings.Split(strings.TrimPrefix(rest, "."), ".") {
		if class != "" {
			el.ClassList = append(el.ClassList, class)
		}
	}
	if el.TagName == "" && el.ID == "" && len(el.ClassList) == 0 {
		return types.SelectedElement{}, fmt.Errorf("element %q names nothing", s)
	}
	return el, nil
}

func printResult(w io.Writer, result validation.Result) {
	if result.Valid {
		fmt.Fprintln(w, "Animation configuration is valid.")
		return
	}
	fmt.Fprintf(w, "Found %d problem(s):\n", len(result.Errors))
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func newValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an animation configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readAnimationFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			result := validation.Config(cfg)
			printResult(cmd.OutOrStdout(), result)
			if !result.Valid {
				return errInvalidAnimation
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "animation YAML file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// renderFile validates the file and produces its prompt block for the
// given element shorthands.
func renderFile(cmd *cobra.Command, file string, elements []string) (string, error) {
	cfg, err := readAnimationFile(file, cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	if result := validation.Config(cfg); !result.Valid {
		printResult(cmd.ErrOrStderr(), result)
		return "", errInvalidAnimation
	}

	selected := make([]types.SelectedElement, 0, len(elements))
	for _, raw := range elements {
		el, err := parseElement(raw)
		if err != nil {
			return "", err
		}
		selected = append(selected, el)
	}

	text, ok := prompts.GenerateAnimationPrompt(&cfg, selected)
	if !ok {
		return "", errors.New("nothing to render: select at least one element")
	}
	return text, nil
}

func newRenderCmd() *cobra.Command {
	var file string
	var elements []string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the prompt block a configuration produces for the given elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := renderFile(cmd, file, elements)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "animation YAML file (- for stdin)")
	cmd.Flags().StringArrayVarP(&elements, "element", "e", nil, `target element as "tag#id.class" (repeatable)`)
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPreviewCmd(configDir *string) *cobra.Command {
	var file, prompt, outDir string
	var elements []string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Generate implementation files for an animation and write them to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := renderFile(cmd, file, elements)
			if err != nil {
				return err
			}

			loadDotEnv()
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			if cfg.OpenAIKey == "" {
				return errors.New("OPENAI_API_KEY is required for previews")
			}

			files, err := ai.NewGenerator(cfg.OpenAIKey, cfg.OpenAIModel).GenerateAnimationCode(cmd.Context(), prompt, text)
			if err != nil {
				return err
			}
			n, err := ai.SaveFiles(outDir, files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d file(s) to %s\n", n, outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "animation YAML file (- for stdin)")
	cmd.Flags().StringArrayVarP(&elements, "element", "e", nil, `target element as "tag#id.class" (repeatable)`)
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "Implement this animation.", "instruction sent along with the animation")
	cmd.Flags().StringVarP(&outDir, "out", "o", "tmp", "directory the generated files are written to")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
