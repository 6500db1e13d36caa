package services

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/lithammer/dedent"
	"gopkg.in/yaml.v3"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/entities"
)

// PromptTemplates are text/template sources for the edit instruction.
// GarmentImage is used when a garment photo is attached as the second image,
// GarmentDescription when the garment is only described in words.
type PromptTemplates struct {
	GarmentImage       string `yaml:"garment_image"`
	GarmentDescription string `yaml:"garment_description"`
}

var defaultGarmentImagePrompt = strings.TrimSpace(dedent.Dedent(`
	Edit the first image (person) by replacing their current clothing with the garment from the second image.
	{{- if .Description}}
	The garment is: {{.Description}}.
	{{- end}}

	CRITICAL REQUIREMENTS:
	- EDIT the existing person image, do not create a new one
	- Keep the person's face, hair, body shape, pose and background EXACTLY the same
	- Only change the clothing - replace their current clothes with the garment from image 2
	- Maintain identical lighting, shadows, pose and background
	- Make the new garment fit naturally on their existing body
	- The result should look like the same photo but with different clothes

	DO NOT: Change anything else about the person or image
	DO: Only edit the clothing to match the garment from image 2
`))

var defaultGarmentDescriptionPrompt = strings.TrimSpace(dedent.Dedent(`
	Edit this image to show the person wearing a {{.Description}}.

	CRITICAL REQUIREMENTS:
	- Keep the person's face, hair, body shape, pose and background EXACTLY the same
	- Only edit the clothing area to show them wearing the {{.Description}}
	- The garment should look exactly like described (same color, style, fit)
	- Maintain identical lighting, shadows and background
	- The result should look like a real photo edit where only the clothing changed
	- Do NOT change anything else about the image

	This is an EDIT operation - preserve the original image structure and only modify the clothing.
`))

func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		GarmentImage:       defaultGarmentImagePrompt,
		GarmentDescription: defaultGarmentDescriptionPrompt,
	}
}

// LoadPromptTemplates reads templates from a YAML file. Keys missing from the
// file keep their default text.
func LoadPromptTemplates(path string) (PromptTemplates, error) {
	templates := DefaultPromptTemplates()

	raw, err := os.ReadFile(path)
	if err != nil {
		return templates, fmt.Errorf("failed to read prompt templates: %w", err)
	}

	var fromFile PromptTemplates
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return templates, fmt.Errorf("failed to parse prompt templates %s: %w", path, err)
	}

	if strings.TrimSpace(fromFile.GarmentImage) != "" {
		templates.GarmentImage = fromFile.GarmentImage
	}
	if strings.TrimSpace(fromFile.GarmentDescription) != "" {
		templates.GarmentDescription = fromFile.GarmentDescription
	}

	return templates, nil
}

type PromptBuilder struct {
	garmentImage       *template.Template
	garmentDescription *template.Template
}

func NewPromptBuilder(templates PromptTemplates) (*PromptBuilder, error) {
	garmentImage, err := template.New("garment_image").Option("missingkey=error").Parse(templates.GarmentImage)
	if err != nil {
		return nil, fmt.Errorf("invalid garment_image template: %w", err)
	}

	garmentDescription, err := template.New("garment_description").Option("missingkey=error").Parse(templates.GarmentDescription)
	if err != nil {
		return nil, fmt.Errorf("invalid garment_description template: %w", err)
	}

	return &PromptBuilder{
		garmentImage:       garmentImage,
		garmentDescription: garmentDescription,
	}, nil
}

type promptData struct {
	Description     string
	HasGarmentImage bool
}

// Build renders the edit instruction for the request.
func (b *PromptBuilder) Build(request *entities.TryOnRequest) (string, error) {
	tmpl := b.garmentDescription
	if request.HasGarmentImage() {
		tmpl = b.garmentImage
	}

	var sb strings.Builder
	data := promptData{
		Description:     request.GarmentDescription(),
		HasGarmentImage: request.HasGarmentImage(),
	}
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}

	return strings.TrimSpace(sb.String()), nil
}
