// Package types provides type definitions for structured data used throughout the cover letter generator.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ResumeProfile is the structured resume produced by resume parsing and consumed
// read-only by the prompt pipeline. JSON names match the stored profile layout.
type ResumeProfile struct {
	Name       string       `json:"name" yaml:"name" validate:"required"`
	Email      string       `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	Phone      string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	Education  string       `json:"education,omitempty" yaml:"education,omitempty"`
	Skills     string       `json:"skills,omitempty" yaml:"skills,omitempty"`
	Experience []Experience `json:"experience,omitempty" yaml:"experience,omitempty" validate:"dive"`
	Projects   []Project    `json:"projects,omitempty" yaml:"projects,omitempty" validate:"dive"`
	Summary    string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	RawText    string       `json:"rawText,omitempty" yaml:"raw_text,omitempty"`
}

// Experience is a single work history entry, kept in resume order.
type Experience struct {
	Title       string `json:"title" yaml:"title" validate:"required"`
	Company     string `json:"company" yaml:"company" validate:"required"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Project is a single project entry, kept in resume order.
type Project struct {
	Name         string `json:"name" yaml:"name" validate:"required"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Technologies string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
}

// Validate validates the ResumeProfile using the validator.
// A name made only of whitespace counts as missing.
func (p *ResumeProfile) Validate() error {
	validate := validator.New()
	trimmed := *p
	trimmed.Name = strings.TrimSpace(p.Name)
	return validate.Struct(&trimmed)
}
