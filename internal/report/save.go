// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// SafeFilename reduces a topic to a filesystem-safe base name. Only
// letters, digits, spaces, hyphens, and underscores survive; spaces
// become underscores, the result is cut to maxLen, and an empty result
// falls back to "untitled".
func SafeFilename(topic string, maxLen int) string {
	var b strings.Builder
	for _, r := range topic {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), "_")
	if maxLen > 0 {
		runes := []rune(name)
		if len(runes) > maxLen {
			name = strings.Trim(string(runes[:maxLen]), "_")
		}
	}
	if name == "" {
		return "untitled"
	}
	return name
}

// Filename builds the timestamped report filename for a topic.
func Filename(topic string, t time.Time, maxLen int) string {
	return fmt.Sprintf("%s_%s.md", t.Format("20060102_150405"), SafeFilename(topic, maxLen))
}

// manifest is the YAML run record written alongside each report.
type manifest struct {
	Topic       string    `yaml:"topic"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Model       string    `yaml:"model"`
	Language    string    `yaml:"language"`
	WebVerified bool      `yaml:"web_verified"`
	Queries     []string  `yaml:"queries"`
	Sources     []manifestSource `yaml:"sources"`
}

type manifestSource struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Score int    `yaml:"score"`
}

// Save persists the rendered report to the reports directory and a
// copy to the archive directory, plus a plain-text source manifest and
// a YAML run manifest next to the primary file. It returns the primary
// report path. Secondary sinks are best-effort: their failures are
// folded into the returned error while the primary write still counts.
func Save(rep *types.ResearchReport, rendered string, cfg types.ReportConfig) (string, error) {
	filename := Filename(rep.Topic, rep.GeneratedAt, cfg.MaxFilenameLen)

	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	primary := filepath.Join(cfg.ReportsDir, filename)
	if err := os.WriteFile(primary, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	var errs []string

	if cfg.ArchiveDir != "" {
		if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
			errs = append(errs, fmt.Sprintf("archive directory: %v", err))
		} else if err := os.WriteFile(filepath.Join(cfg.ArchiveDir, filename), []byte(rendered), 0o644); err != nil {
			errs = append(errs, fmt.Sprintf("archive copy: %v", err))
		}
	}

	base := strings.TrimSuffix(primary, ".md")

	if err := writeSourceList(base+"_sources.txt", rep); err != nil {
		errs = append(errs, fmt.Sprintf("source list: %v", err))
	}
	if err := writeManifest(base+"_manifest.yaml", rep); err != nil {
		errs = append(errs, fmt.Sprintf("manifest: %v", err))
	}

	if len(errs) > 0 {
		return primary, fmt.Errorf("report saved with partial persistence: %s", strings.Join(errs, "; "))
	}
	return primary, nil
}

// writeSourceList writes one "title <TAB> url" line per source.
func writeSourceList(path string, rep *types.ResearchReport) error {
	var b strings.Builder
	for _, it := range rep.Items {
		fmt.Fprintf(&b, "%s\t%s\n", it.Source, it.URL)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// writeManifest marshals the run manifest to YAML.
func writeManifest(path string, rep *types.ResearchReport) error {
	m := manifest{
		Topic:       rep.Topic,
		GeneratedAt: rep.GeneratedAt,
		Model:       rep.ModelUsed,
		Language:    rep.Language,
		WebVerified: rep.WebVerified,
		Queries:     rep.Queries,
	}
	for _, it := range rep.Items {
		m.Sources = append(m.Sources, manifestSource{Title: it.Source, URL: it.URL, Score: it.ReliabilityScore})
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
