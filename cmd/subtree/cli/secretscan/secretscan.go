// Package secretscan implements the pre-push secret scan: before subtree
// push sends a synthesized subtree history to a remote, every commit
// message and blob it introduces is scanned for likely secrets so a
// credential accidentally committed to the mainline doesn't get published
// to a (possibly public) subtree remote it never should have reached.
package secretscan

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// secretPattern matches high-entropy strings that may be secrets.
var secretPattern = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold is the minimum Shannon entropy for a string to be
// considered a secret. 4.5 is high enough to avoid flagging common words
// and identifiers, low enough to catch typical API keys and tokens, which
// tend to sit well above 5.0.
const entropyThreshold = 4.5

var (
	gitleaksDetector     *detect.Detector
	gitleaksDetectorOnce sync.Once
)

func getDetector() *detect.Detector {
	gitleaksDetectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		gitleaksDetector = d
	})
	return gitleaksDetector
}

// Finding is one detected secret: the matched text and, if the gitleaks
// rule set identified it, the name of the rule that matched.
type Finding struct {
	Text  string
	Rule  string
	Start int
	End   int
}

// region represents a byte range flagged as a possible secret.
type region struct {
	start, end int
	rule       string
}

// Scan inspects content (a commit message or a decoded blob) and returns
// every region that looks like a secret, using two layered detectors:
// entropy-based (high-entropy alphanumeric runs) and pattern-based
// (gitleaks' bundled rule set). A region is reported if either flags it.
func Scan(content string) []Finding {
	var regions []region

	for _, loc := range secretPattern.FindAllStringIndex(content, -1) {
		if shannonEntropy(content[loc[0]:loc[1]]) > entropyThreshold {
			regions = append(regions, region{loc[0], loc[1], "high-entropy"})
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(content) {
			if f.Secret == "" {
				continue
			}
			searchFrom := 0
			for {
				idx := strings.Index(content[searchFrom:], f.Secret)
				if idx < 0 {
					break
				}
				absIdx := searchFrom + idx
				regions = append(regions, region{absIdx, absIdx + len(f.Secret), "gitleaks"})
				searchFrom = absIdx + len(f.Secret)
			}
		}
	}

	if len(regions) == 0 {
		return nil
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
			if last.rule == "high-entropy" && r.rule != "high-entropy" {
				last.rule = r.rule
			}
			continue
		}
		merged = append(merged, r)
	}

	findings := make([]Finding, len(merged))
	for i, r := range merged {
		findings[i] = Finding{Text: content[r.start:r.end], Rule: r.rule, Start: r.start, End: r.end}
	}
	return findings
}

// Redact returns content with every Scan-detected region replaced by
// "REDACTED", for use in a warning message shown to the user before push
// aborts or proceeds with --force.
func Redact(content string) string {
	findings := Scan(content)
	if len(findings) == 0 {
		return content
	}
	var b strings.Builder
	prev := 0
	for _, f := range findings {
		b.WriteString(content[prev:f.Start])
		b.WriteString("REDACTED")
		prev = f.End
	}
	b.WriteString(content[prev:])
	return b.String()
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := range len(s) {
		freq[s[i]]++
	}
	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
