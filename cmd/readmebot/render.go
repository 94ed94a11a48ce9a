package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nadzzz/readmebot/internal/catalog"
	"github.com/nadzzz/readmebot/internal/document"
	"github.com/nadzzz/readmebot/internal/extraction"
	"github.com/nadzzz/readmebot/internal/icon"
	"github.com/nadzzz/readmebot/internal/profile"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a README from a profile file",
	Long:  "Render a profile README offline from a YAML or JSON file holding the profile and the extracted skills, without any provider calls.",
	RunE:  runRender,
}

var (
	renderInputFile  string
	renderOutputFile string
	renderCDNBase    string
	renderMaxSkills  int
)

func init() {
	renderCmd.Flags().StringVarP(&renderInputFile, "input", "i", "", "Path to profile YAML or JSON file (required)")
	renderCmd.Flags().StringVarP(&renderOutputFile, "out", "o", "", "Path to output README (default stdout)")
	renderCmd.Flags().StringVar(&renderCDNBase, "cdn-base", "https://cdn.jsdelivr.net/gh/devicons/devicon/icons", "Icon CDN base URL")
	renderCmd.Flags().IntVar(&renderMaxSkills, "max-skills", 20, "Maximum entries kept per category")
	_ = renderCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(renderCmd)
}

// renderFile is the offline input format. JSON parses as YAML.
type renderFile struct {
	Profile struct {
		Name      string `yaml:"name"`
		GitHub    string `yaml:"github"`
		LinkedIn  string `yaml:"linkedin"`
		Portfolio string `yaml:"portfolio"`
		Email     string `yaml:"email"`
	} `yaml:"profile"`
	Summary            string   `yaml:"summary"`
	Languages          []string `yaml:"languages"`
	Skills             []string `yaml:"skills"`
	Tools              []string `yaml:"tools"`
	CurrentlyWorkingOn string   `yaml:"currently_working_on"`
	CurrentlyLearning  string   `yaml:"currently_learning"`
	OpenTo             string   `yaml:"open_to"`
	FunFact            string   `yaml:"fun_fact"`
}

func runRender(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(renderInputFile)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	doc, err := renderReadme(cmd.Context(), data, renderCDNBase, renderMaxSkills)
	if err != nil {
		return err
	}

	if renderOutputFile == "" {
		_, err = cmd.OutOrStdout().Write(doc)
		return err
	}
	if err := os.WriteFile(renderOutputFile, doc, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", renderOutputFile, len(doc))
	return nil
}

func renderReadme(ctx context.Context, data []byte, cdnBase string, maxSkills int) ([]byte, error) {
	var in renderFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}

	p, err := profile.Profile{}.With([]profile.Assignment{
		{Field: profile.FieldName, Value: in.Profile.Name},
		{Field: profile.FieldGitHub, Value: in.Profile.GitHub},
		{Field: profile.FieldLinkedIn, Value: in.Profile.LinkedIn},
		{Field: profile.FieldPortfolio, Value: in.Profile.Portfolio},
		{Field: profile.FieldEmail, Value: in.Profile.Email},
	})
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	raw := extraction.Result{
		Summary:            in.Summary,
		CurrentlyWorkingOn: in.CurrentlyWorkingOn,
		CurrentlyLearning:  in.CurrentlyLearning,
		OpenTo:             in.OpenTo,
		FunFact:            in.FunFact,
	}
	raw.Append(profile.CategoryLanguage, in.Languages...)
	raw.Append(profile.CategorySkill, in.Skills...)
	raw.Append(profile.CategoryTool, in.Tools...)
	clean := extraction.Normalizer{MaxPerCategory: maxSkills}.Clean(raw)

	skills := profile.NewSkillSet(clean.Flatten()...).Items()

	assembler, err := document.NewMarkdown(cdnBase)
	if err != nil {
		return nil, err
	}
	return assembler.Assemble(ctx, document.Input{
		Profile:   p,
		Summary:   clean.Summary,
		WorkingOn: clean.CurrentlyWorkingOn,
		Learning:  clean.CurrentlyLearning,
		OpenTo:    clean.OpenTo,
		FunFact:   clean.FunFact,
		Icons:     icon.Bind(cat, skills),
	})
}
