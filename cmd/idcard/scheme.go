package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/internal/service"
)

type schemeFile struct {
	Primary   string `yaml:"primary" validate:"required"`
	Secondary string `yaml:"secondary" validate:"required"`
	Accent    string `yaml:"accent" validate:"required"`
	Text      string `yaml:"text" validate:"required"`
}

// loadScheme reads a color scheme file. Every value goes through the color normalizer, so
// lab(), lch(), oklab(), oklch() and rgb() are accepted alongside hex.
func loadScheme(path string, themes *service.ThemeService) (models.ColorScheme, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.ColorScheme{}, fmt.Errorf("read scheme file: %w", err)
	}

	var file schemeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return models.ColorScheme{}, fmt.Errorf("parse scheme file %s: %w", path, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return models.ColorScheme{}, fmt.Errorf("scheme file %s needs primary, secondary, accent and text: %w", path, err)
	}

	return themes.NormalizeScheme(models.ColorScheme{
		Primary:   file.Primary,
		Secondary: file.Secondary,
		Accent:    file.Accent,
		Text:      file.Text,
	}), nil
}
