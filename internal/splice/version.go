package splice

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the 14-digit timestamp embedded in version names.
const TimestampLayout = "20060102150405"

// DefaultTags are the model tags recognised in existing version names.
var DefaultTags = []string{"ThinkModel", "FullModel", "NovelModel"}

var leadingSerial = regexp.MustCompile(`^(\d+)-`)

// Versioner derives the next version file name for a document:
// <serial>-<name>-<profile>→<timestamp><ext>.
type Versioner struct {
	// Tags recognised as the profile part of an existing version name.
	Tags []string
	// Now supplies the timestamp; time.Now when nil.
	Now func() time.Time
}

// NewVersioner returns a Versioner that recognises DefaultTags plus extra.
func NewVersioner(extra ...string) *Versioner {
	seen := map[string]bool{}
	tags := make([]string, 0, len(DefaultTags)+len(extra))
	for _, t := range append(append([]string(nil), DefaultTags...), extra...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return &Versioner{Tags: tags}
}

// NextVersionName returns the next version file name using DefaultTags and
// the current time.
func NextVersionName(currentPath, profile string) string {
	return NewVersioner().NextName(currentPath, profile)
}

// NextName returns the base name of the next version of currentPath.
func (v *Versioner) NextName(currentPath, profile string) string {
	ext := filepath.Ext(currentPath)
	base := strings.TrimSuffix(filepath.Base(currentPath), ext)

	serial, name := v.parse(base)
	return strconv.Itoa(serial+1) + "-" + name + "-" + profile + "→" + v.now().Format(TimestampLayout) + ext
}

// NextPath is NextName placed next to currentPath.
func (v *Versioner) NextPath(currentPath, profile string) string {
	return filepath.Join(filepath.Dir(currentPath), v.NextName(currentPath, profile))
}

// parse returns the current serial (0 for an unversioned name) and the
// original document name.
func (v *Versioner) parse(base string) (int, string) {
	alt := v.tagAlternation()
	if alt == "" {
		return 0, base
	}
	full := regexp.MustCompile(`^(\d+)-(.+)-(` + alt + `)→(\d{14})$`)
	if m := full.FindStringSubmatch(base); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, m[2]
	}

	if leadingSerial.MatchString(base) && v.containsTag(base) {
		head, remainder, _ := strings.Cut(base, "-")
		suffix := regexp.MustCompile(`-(` + alt + `)→\d{14}$`)
		name := suffix.ReplaceAllString(remainder, "")
		n, err := strconv.Atoi(head)
		if err != nil {
			n = 0
		}
		return n, name
	}
	return 0, base
}

func (v *Versioner) tagAlternation() string {
	quoted := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		if t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	return strings.Join(quoted, "|")
}

func (v *Versioner) containsTag(s string) bool {
	for _, t := range v.Tags {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func (v *Versioner) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
