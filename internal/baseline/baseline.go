// Package baseline persists the fingerprints of accepted findings and
// classifies the findings of later runs as new or known.
package baseline

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/jsguard/domain"
)

// Fingerprint is the line-independent identity of a finding: its rule id and
// the signature of its entity. Message text and positions are left out so
// reformatting keeps a finding known.
func Fingerprint(f domain.Finding) string {
	return f.RuleID + ":" + f.Entity.Signature
}

// Baseline is a set of accepted fingerprints. Manually suppressed ids are
// maintained by hand and survive regeneration; current issues are rewritten
// on every create run.
type Baseline struct {
	manual  map[string]struct{}
	current map[string]struct{}
}

// document is the on-disk layout of a baseline file
type document struct {
	Baseline struct {
		ManuallySuppressedIssues []string `yaml:"manuallySuppressedIssues"`
		CurrentIssues            []string `yaml:"currentIssues"`
	} `yaml:"baseline"`
}

// New creates a baseline from fingerprint lists. Duplicates are dropped.
func New(manuallySuppressed, current []string) *Baseline {
	return &Baseline{manual: toSet(manuallySuppressed), current: toSet(current)}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Create builds the baseline for the findings of a run. The manually
// suppressed list of previous, if any, is kept.
func Create(findings []domain.Finding, previous *Baseline) *Baseline {
	b := &Baseline{manual: map[string]struct{}{}, current: make(map[string]struct{}, len(findings))}
	if previous != nil {
		for id := range previous.manual {
			b.manual[id] = struct{}{}
		}
	}
	for _, f := range findings {
		b.current[Fingerprint(f)] = struct{}{}
	}
	return b
}

// ManuallySuppressed returns the hand-maintained fingerprints, sorted
func (b *Baseline) ManuallySuppressed() []string {
	return sortedIDs(b.manual)
}

// CurrentIssues returns the generated fingerprints, sorted
func (b *Baseline) CurrentIssues() []string {
	return sortedIDs(b.current)
}

// Size returns the number of distinct fingerprints in both lists
func (b *Baseline) Size() int {
	n := len(b.current)
	for id := range b.manual {
		if _, dup := b.current[id]; !dup {
			n++
		}
	}
	return n
}

// Contains reports whether the finding is known to the baseline
func (b *Baseline) Contains(f domain.Finding) bool {
	id := Fingerprint(f)
	if _, ok := b.manual[id]; ok {
		return true
	}
	_, ok := b.current[id]
	return ok
}

// Classify splits findings into those absent from the baseline and those
// it already knows. The input order is kept in both results.
func (b *Baseline) Classify(findings []domain.Finding) (newFindings, known []domain.Finding) {
	newFindings = make([]domain.Finding, 0, len(findings))
	known = make([]domain.Finding, 0)
	for _, f := range findings {
		if b.Contains(f) {
			known = append(known, f)
		} else {
			newFindings = append(newFindings, f)
		}
	}
	return newFindings, known
}

// Marshal renders the baseline document with sorted lists
func (b *Baseline) Marshal() ([]byte, error) {
	var doc document
	doc.Baseline.ManuallySuppressedIssues = b.ManuallySuppressed()
	doc.Baseline.CurrentIssues = b.CurrentIssues()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a baseline document
func Unmarshal(data []byte) (*Baseline, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return New(doc.Baseline.ManuallySuppressedIssues, doc.Baseline.CurrentIssues), nil
}

// Load reads a baseline file. A missing or malformed file is an error.
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewBaselineError(fmt.Sprintf("baseline file %s does not exist", path), err)
		}
		return nil, domain.NewBaselineError(fmt.Sprintf("failed to read baseline file %s", path), err)
	}
	b, err := Unmarshal(data)
	if err != nil {
		return nil, domain.NewBaselineError(fmt.Sprintf("invalid baseline file %s", path), err)
	}
	return b, nil
}

// LoadIfExists reads a baseline file, returning nil without error when it
// does not exist
func LoadIfExists(path string) (*Baseline, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return Load(path)
}

// Save writes the baseline, creating parent directories as needed
func Save(path string, b *Baseline) error {
	data, err := b.Marshal()
	if err != nil {
		return domain.NewBaselineError("failed to encode baseline", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return domain.NewBaselineError(fmt.Sprintf("failed to create directory for %s", path), err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.NewBaselineError(fmt.Sprintf("failed to write baseline file %s", path), err)
	}
	return nil
}
