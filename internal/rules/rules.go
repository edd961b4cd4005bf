// Package rules loads per-client QA rules from JSON files and applies
// them to parsed emails. Each client an agency runs QA for gets one
// rules file named <client>.json in the rules directory.
package rules

// ClientRules is the on-disk shape of one client's rules file.
type ClientRules struct {
	Client       string            `json:"client"`
	DisplayName  string            `json:"display_name,omitempty"`
	Version      int               `json:"version"`
	Segmentation *Segmentation     `json:"segmentation,omitempty"`
	Modules      []ContentRule     `json:"content_modules,omitempty"`
	Brand        *BrandRules       `json:"brand,omitempty"`
	DosAndDonts  *DosAndDonts      `json:"dos_and_donts,omitempty"`
	Compliance   *Compliance       `json:"compliance,omitempty"`
	UTM          *UTMRules         `json:"utm,omitempty"`
	CTAs         []CTARule         `json:"ctas,omitempty"`
	PhoneNumbers []string          `json:"phone_numbers,omitempty"`
	Social       map[string]string `json:"social_handles,omitempty"`
}

// Segmentation declares whether campaigns for this client ship in
// audience variants, and which variants exist.
type Segmentation struct {
	Required bool     `json:"required"`
	Segments []string `json:"segments,omitempty"`
}

// ContentRule names a content module and the keywords that prove its
// presence in the rendered email.
type ContentRule struct {
	Name     string   `json:"name"`
	Required bool     `json:"required"`
	Keywords []string `json:"keywords,omitempty"`
}

// BrandRules carries phrase-level brand constraints.
type BrandRules struct {
	RequiredPhrases []string `json:"required_phrases,omitempty"`
	BannedPhrases   []string `json:"banned_phrases,omitempty"`
	Tone            string   `json:"tone,omitempty"`
}

// DosAndDonts are advisory editorial guidelines. Violations surface as
// warnings, never as issues.
type DosAndDonts struct {
	Dos   []string `json:"dos,omitempty"`
	Donts []string `json:"donts,omitempty"`
}

// Compliance toggles the legal checks applied to this client's email.
type Compliance struct {
	RequireUnsubscribe     bool `json:"require_unsubscribe"`
	RequirePhysicalAddress bool `json:"require_physical_address"`
	RequireAltText         bool `json:"require_alt_text"`
}

// UTMRules declares tracking-parameter requirements for outbound links.
type UTMRules struct {
	RequiredParams []string          `json:"required_params,omitempty"`
	ExpectedValues map[string]string `json:"expected_values,omitempty"`
}

// CTARule pins a call-to-action the client expects in every campaign.
type CTARule struct {
	Text       string `json:"text"`
	URLPattern string `json:"url_pattern,omitempty"`
	Required   bool   `json:"required"`
}
