package model

import "time"

// Report is the complete result of one QA check
type Report struct {
	Client   string `json:"client"`
	Segment  string `json:"segment,omitempty"`
	Campaign string `json:"campaign,omitempty"`

	CheckedAt  time.Time `json:"checked_at"`
	DurationMS int64     `json:"duration_ms"`
	Status     Status    `json:"status"` // completed or failed

	DocumentFile string `json:"document_file"`
	EmailFile    string `json:"email_file"`

	Requirements Requirements `json:"requirements"`
	Email        Email        `json:"email"`

	Analysis   Analysis        `json:"analysis"`
	Links      LinkValidation  `json:"link_validation"`
	Compliance Compliance      `json:"compliance"`
	Rules      *RuleValidation `json:"rule_validation,omitempty"` // nil when no client rules exist

	Issues   []string `json:"issues"`   // Blocking findings
	Warnings []string `json:"warnings"` // Advisory findings

	Score Score `json:"score"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional advisory summary; never affects scoring
}

// Status reflects how far the check got
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Analysis is the content comparison between email and copy document
type Analysis struct {
	Subject    Check      `json:"subject"`
	Preview    Check      `json:"preview"`
	CTAs       Check      `json:"ctas"`
	Encoding   Check      `json:"encoding"`
	CTAMatches []CTAMatch `json:"cta_matches,omitempty"`
	Passed     bool       `json:"passed"`
}

// Check is a single pass/fail comparison with its inputs recorded
type Check struct {
	Passed   bool     `json:"passed"`
	Expected []string `json:"expected,omitempty"`
	Actual   string   `json:"actual,omitempty"`
	Details  []string `json:"details,omitempty"`
}

// CTAMatch records whether one required CTA was found in the email
type CTAMatch struct {
	Required string `json:"required"`
	Found    bool   `json:"found"`
	URL      string `json:"url,omitempty"` // Matching email CTA destination
}

// LinkValidation summarizes link presence, liveness, UTM, phone and social checks
type LinkValidation struct {
	TotalLinks    int               `json:"total_links"`
	RequiredLinks int               `json:"required_links"`
	MatchedLinks  int               `json:"matched_links"`
	MissingLinks  []string          `json:"missing_links,omitempty"`
	ExtraLinks    []string          `json:"extra_links,omitempty"`
	Checked       []LinkStatus      `json:"checked,omitempty"` // Liveness results (empty when skipped)
	UTM           UTMValidation     `json:"utm"`
	Phone         *PhoneValidation  `json:"phone,omitempty"`
	Social        *SocialValidation `json:"social,omitempty"`
	Passed        bool              `json:"passed"`
	Skipped       bool              `json:"skipped"` // Liveness checking disabled
}

// LinkStatus is the liveness result for a single URL
type LinkStatus struct {
	URL          string `json:"url"`
	Text         string `json:"text,omitempty"`
	FinalURL     string `json:"final_url,omitempty"` // After tracking-link resolution or redirects
	StatusCode   int    `json:"status_code,omitempty"`
	IsAccessible bool   `json:"is_accessible"`
	IsDead       bool   `json:"is_dead"`           // 404/410 or unrecoverable network failure
	Skipped      bool   `json:"skipped,omitempty"` // robots.txt disallowed
	FromCache    bool   `json:"from_cache,omitempty"`
	Error        string `json:"error,omitempty"`
}

// UTMValidation tracks UTM parameter requirements
type UTMValidation struct {
	Passed      bool       `json:"passed"`
	MissingOn   []string   `json:"missing_on,omitempty"` // Links missing required params
	ValueErrors []UTMError `json:"value_errors,omitempty"`
}

// UTMError is a mismatch between an expected and actual UTM value
type UTMError struct {
	URL      string `json:"url"`
	Param    string `json:"param"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// PhoneValidation tracks brand phone number checks
type PhoneValidation struct {
	Required string   `json:"required"`
	Found    []string `json:"found,omitempty"` // Normalized numbers from tel: links
	Passed   bool     `json:"passed"`
}

// SocialValidation tracks brand social-handle checks
type SocialValidation struct {
	Found  []SocialLink `json:"found,omitempty"`
	Passed bool         `json:"passed"`
}

// SocialLink is a social-platform link discovered in the email
type SocialLink struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle,omitempty"`
	URL      string `json:"url"`
}

// Compliance holds CAN-SPAM and accessibility results
type Compliance struct {
	CANSPAM       CANSPAM       `json:"can_spam"`
	Accessibility Accessibility `json:"accessibility"`
	Passed        bool          `json:"passed"`
}

// CANSPAM records the CAN-SPAM required elements
type CANSPAM struct {
	UnsubscribePresent     bool `json:"unsubscribe_present"`
	PhysicalAddressPresent bool `json:"physical_address_present"`
	Passed                 bool `json:"passed"`
}

// Accessibility records alt-text coverage on images
type Accessibility struct {
	ImagesWithAlt    int  `json:"images_with_alt"`
	ImagesWithoutAlt int  `json:"images_without_alt"`
	Passed           bool `json:"passed"`
}

// RuleValidation holds the result of applying client rules
type RuleValidation struct {
	Client   string             `json:"client"`
	Sections map[string]Section `json:"sections,omitempty"` // segmentation, modules, brand, copywriting, compliance
	Issues   []string           `json:"issues,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
	Passed   bool               `json:"passed"`
}

// Section is the outcome of one rules section
type Section struct {
	Checks  map[string]bool `json:"checks,omitempty"`
	Missing []string        `json:"missing,omitempty"`
	Found   []string        `json:"found,omitempty"`
	Details []string        `json:"details,omitempty"`
}

// Score is the transparent scoring breakdown
type Score struct {
	Index   int      `json:"index"`   // Overall QA score (0-100)
	Verdict bool     `json:"verdict"` // Pass/fail
	Signals []Signal `json:"signals"` // Diagnostic signals with scoring inputs
}

// Signal is a diagnostic finding with the data behind it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the diagnostic signal
type SignalType string

const (
	SignalContentMatch   SignalType = "content_match"   // Subject/preview/CTA agreement
	SignalLinkIntegrity  SignalType = "link_integrity"  // Presence + liveness + UTM
	SignalCompliance     SignalType = "compliance"      // CAN-SPAM + accessibility
	SignalBrandFit       SignalType = "brand_fit"       // Phone, social, sender identity
	SignalEncodingRepair SignalType = "encoding_repair" // Mojibake found in inputs
	SignalRulesMissing   SignalType = "rules_missing"   // No rules file for client
)

// SignalSeverity indicates how serious the signal is
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// LLMSummary contains the optional LLM-generated advisory summary.
// It never affects scoring and is clearly separated in the report.
type LLMSummary struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
