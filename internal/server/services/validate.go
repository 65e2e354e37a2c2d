package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/google/uuid"
)

const maxFilenameLength = 255

var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\-.]`)

// SanitizeFilename reduces a client-supplied name to something safe to keep
// and to echo back in Content-Disposition:
//
//   - directory components are dropped ("../../a.txt" becomes "a.txt")
//   - anything but letters, digits, '_', '-', '.' and spaces becomes '_'
//   - every dot but the one starting the extension becomes '_'
//   - the result is capped at 255 characters, keeping the extension
func SanitizeFilename(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")

	stem, ext := splitExt(name)
	name = strings.ReplaceAll(stem, ".", "_") + ext

	if utf8.RuneCountInString(name) > maxFilenameLength {
		stem, ext := splitExt(name)
		keep := maxFilenameLength - utf8.RuneCountInString(ext)
		if keep < 0 {
			keep = 0
		}
		name = string([]rune(stem)[:keep]) + ext
		if utf8.RuneCountInString(name) > maxFilenameLength {
			name = string([]rune(name)[:maxFilenameLength])
		}
	}
	return name
}

// splitExt splits off the last ".ext". Leading dots are part of the stem, so
// ".bashrc" has no extension.
func splitExt(name string) (stem, ext string) {
	trimmed := strings.TrimLeft(name, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return name, ""
	}
	i += len(name) - len(trimmed)
	return name[:i], name[i:]
}

// ExtensionPolicy decides which file extensions may be uploaded. Blocked
// wins over allowed.
type ExtensionPolicy struct {
	allowed map[string]struct{}
	blocked map[string]struct{}
}

func NewExtensionPolicy(allowed, blocked []string) *ExtensionPolicy {
	p := &ExtensionPolicy{
		allowed: make(map[string]struct{}, len(allowed)),
		blocked: make(map[string]struct{}, len(blocked)),
	}
	for _, e := range allowed {
		p.allowed[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	for _, e := range blocked {
		p.blocked[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return p
}

// Check returns the lowercase extension of a sanitized file name, or a
// *common.ValidationError explaining why it is refused.
func (p *ExtensionPolicy) Check(filename string) (string, error) {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i+1:])
	}

	if ext == "" {
		return "", common.NewValidationError("File must have an extension")
	}
	if _, ok := p.blocked[ext]; ok {
		return "", common.NewValidationError("File type '.%s' is not allowed for security reasons", ext)
	}
	if _, ok := p.allowed[ext]; !ok {
		return "", common.NewValidationError("File type '.%s' is not allowed. Allowed types: %s", ext, p.allowedList())
	}
	return ext, nil
}

func (p *ExtensionPolicy) allowedList() string {
	exts := make([]string, 0, len(p.allowed))
	for e := range p.allowed {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// NewStorageName returns a random object name carrying only ext from the
// client's file name.
func NewStorageName(ext string) string {
	return uuid.New().String() + "." + ext
}
