// Package models defines the shared domain types for the vouch verification
// pipeline. These types are consumed by every checker package and by the
// orchestrator, and form the contract surfaced to callers and dashboards.
package models

import (
	"strings"
)

// Requirements describes the artifact a candidate piece of code is supposed
// to implement. It is supplied by the caller and never mutated by the
// pipeline.
type Requirements struct {
	// Language is the tag of the source language ("vue", "javascript",
	// "python", "go", ...). It selects the syntax validator and linter.
	Language string `json:"language" yaml:"language" validate:"required"`
	// Patterns is the ordered sequence of substrings/markers that must
	// appear verbatim in the code.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	// Rules is the set of style/convention tags the code should follow.
	Rules []string `json:"rules,omitempty" yaml:"rules,omitempty"`
	// Description is optional free-form requirement text handed to the
	// LLM-backed checkers. When empty, Describe falls back to the
	// structured fields.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// DesignReference is an opaque identifier resolved by the design
	// lookup collaborator. Empty means no design comparison is performed.
	DesignReference string `json:"design_reference,omitempty" yaml:"design_reference,omitempty"`
}

// Describe renders the requirements as prompt text for the LLM-backed
// checkers. Without a description the structured fields carry the prompt.
func (r Requirements) Describe() string {
	var parts []string
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if r.Language != "" {
		parts = append(parts, "Language: "+r.Language)
	}
	if len(r.Patterns) > 0 {
		parts = append(parts, "Required patterns: "+strings.Join(r.Patterns, ", "))
	}
	if len(r.Rules) > 0 {
		parts = append(parts, "Style rules: "+strings.Join(r.Rules, ", "))
	}
	return strings.Join(parts, "\n")
}

// Context is the opaque retrieval payload (similar prior examples, snippets)
// passed through to checkers unmodified. The pipeline does not interpret it.
type Context struct {
	// Snippets holds retrieved reference material.
	Snippets []string `json:"snippets,omitempty" yaml:"snippets,omitempty"`
}

// Empty reports whether the context carries no retrieval payload.
func (c Context) Empty() bool {
	return len(c.Snippets) == 0
}
