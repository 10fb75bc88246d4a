// Package trailers provides parsing and formatting for the git-subtree-*
// commit message trailers that let a fresh split recognize the prior
// splits, squashes, and rejoins embedded in mainline history.
package trailers

import (
	"fmt"
	"regexp"
	"strings"
)

// Trailer key constants, per section 3 of the specification.
const (
	// DirKey points at the subdirectory a split/squash/add operation acted on.
	DirKey = "git-subtree-dir"
	// MainlineKey names the mainline commit an add/rejoin marker corresponds to.
	MainlineKey = "git-subtree-mainline"
	// SplitKey names the synthesized subtree commit an add/rejoin/squash
	// marker corresponds to.
	SplitKey = "git-subtree-split"
)

var keyRegex = map[string]*regexp.Regexp{
	DirKey:      regexp.MustCompile(DirKey + `:\s*(.+)`),
	MainlineKey: regexp.MustCompile(MainlineKey + `:\s*(.+)`),
	SplitKey:    regexp.MustCompile(SplitKey + `:\s*(.+)`),
}

// Parse extracts the value of the named trailer from a commit message.
// Returns ("", false) if the trailer is absent.
func Parse(message, key string) (string, bool) {
	re, ok := keyRegex[key]
	if !ok {
		re = regexp.MustCompile(regexp.QuoteMeta(key) + `:\s*(.+)`)
	}
	matches := re.FindStringSubmatch(message)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1]), true
	}
	return "", false
}

// Append adds a single "key: value" trailer line to message, separating it
// from the body with a blank line the way git-subtree's reference shell
// implementation does.
func Append(message, key, value string) string {
	return fmt.Sprintf("%s\n\n%s: %s\n", strings.TrimRight(message, "\n"), key, value)
}

// FormatSquash builds the trailer block for a squash commit: {dir, split}.
func FormatSquash(message, dir, split string) string {
	return fmt.Sprintf("%s\n\n%s: %s\n%s: %s\n", strings.TrimRight(message, "\n"), DirKey, dir, SplitKey, split)
}

// FormatAddOrRejoin builds the trailer block shared by add and rejoin
// commits: {dir, mainline, split}.
func FormatAddOrRejoin(message, dir, mainline, split string) string {
	return fmt.Sprintf("%s\n\n%s: %s\n%s: %s\n%s: %s\n",
		strings.TrimRight(message, "\n"), DirKey, dir, MainlineKey, mainline, SplitKey, split)
}
