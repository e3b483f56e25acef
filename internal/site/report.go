package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	serrors "git.home.luguber.info/inful/lava/internal/site/errors"
)

// BuildOutcome is the final state of a build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// IssueCode identifies a kind of report issue. Codes are a stable contract:
// append, never reuse.
type IssueCode string

const (
	IssueOutputUnavailable     IssueCode = "OUTPUT_UNAVAILABLE"
	IssuePartialsMissing       IssueCode = "PARTIALS_DIR_MISSING"
	IssuePartialsUnreadable    IssueCode = "PARTIALS_DIR_UNREADABLE"
	IssueTemplatesUnreadable   IssueCode = "TEMPLATES_DIR_UNREADABLE"
	IssueTemplateUnreadable    IssueCode = "TEMPLATE_UNREADABLE"
	IssueUnresolvedPartial     IssueCode = "UNRESOLVED_PARTIAL"
	IssueAssetCopy             IssueCode = "ASSET_COPY_FAILED"
	IssuePagesMissing          IssueCode = "PAGES_DIR_MISSING"
	IssuePageSkipped           IssueCode = "PAGE_SKIPPED"
	IssueUnresolvedPlaceholder IssueCode = "UNRESOLVED_PLACEHOLDER"
	IssueCanceled              IssueCode = "BUILD_CANCELED"
)

// IssueSeverity separates fatal issues from recoverable ones.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is one structured problem found during a build.
type ReportIssue struct {
	Code     IssueCode     `json:"code"`
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Kind     serrors.Kind  `json:"kind,omitempty"`
	Path     string        `json:"path,omitempty"`
	Message  string        `json:"message"`
}

// PageResult records one rendered page.
type PageResult struct {
	Source      string   `json:"source"`
	Output      string   `json:"output"`
	Template    string   `json:"template"`
	Fingerprint string   `json:"fingerprint"`
	Unresolved  []string `json:"unresolved,omitempty"`
}

// Report captures what a build did.
type Report struct {
	SchemaVersion  int                         `json:"schema_version"`
	BuildID        string                      `json:"build_id"`
	Source         string                      `json:"source"`
	Destination    string                      `json:"destination"`
	Start          time.Time                   `json:"start"`
	End            time.Time                   `json:"end"`
	StageDurations map[StageName]time.Duration `json:"-"`
	Partials       int                         `json:"partials"`
	Templates      int                         `json:"templates"`
	PagesRendered  int                         `json:"pages_rendered"`
	PagesSkipped   int                         `json:"pages_skipped"`
	AssetsCopied   int                         `json:"assets_copied"`
	AssetBytes     int64                       `json:"asset_bytes"`
	Issues         []ReportIssue               `json:"issues"`
	Pages          []PageResult                `json:"pages"`
	Outcome        BuildOutcome                `json:"outcome"`
}

func newReport(buildID, source, destination string) *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        buildID,
		Source:         source,
		Destination:    destination,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		Issues:         []ReportIssue{},
		Pages:          []PageResult{},
	}
}

// AddIssue appends a structured issue. The error kind is derived from err.
func (r *Report) AddIssue(code IssueCode, stage StageName, severity IssueSeverity, path string, err error) {
	issue := ReportIssue{Code: code, Stage: stage, Severity: severity, Path: path}
	if err != nil {
		issue.Message = err.Error()
		if kind := serrors.KindOf(err); kind != serrors.KindOther {
			issue.Kind = kind
		}
	}
	r.Issues = append(r.Issues, issue)
}

// Warnings counts recoverable issues.
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// Errors counts fatal issues.
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

func (r *Report) count(severity IssueSeverity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	for _, issue := range r.Issues {
		if issue.Code == IssueCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	switch {
	case r.Errors() > 0:
		r.Outcome = OutcomeFailed
	case r.Warnings() > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s pages=%d skipped=%d assets=%d templates=%d partials=%d warnings=%d errors=%d duration=%s outcome=%s",
		r.BuildID, r.PagesRendered, r.PagesSkipped, r.AssetsCopied, r.Templates, r.Partials,
		r.Warnings(), r.Errors(), r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// MarshalJSON implements json.Marshaler, adding stage and total durations
// in milliseconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	stages := make(map[StageName]float64, len(r.StageDurations))
	for name, d := range r.StageDurations {
		stages[name] = float64(d) / float64(time.Millisecond)
	}
	return json.Marshal(struct {
		*plain
		StageDurationsMS map[StageName]float64 `json:"stage_durations_ms"`
		DurationMS       float64               `json:"duration_ms"`
	}{(*plain)(r), stages, float64(r.Duration()) / float64(time.Millisecond)})
}

// Persist writes the report as indented JSON to path. The file is written
// to a temporary sibling first and renamed into place.
func (r *Report) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("atomic rename report: %w", err)
	}
	return nil
}
