package registry

import "strings"

// SkillID derives a stable identity from the canonical name and the
// first-seen content hash prefix. Derivation never changes after creation;
// the ID is what every other table keys on.
func SkillID(canonicalName, contentHash string) string {
	prefix := contentHash
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return "skill-" + slug(canonicalName) + "-" + strings.ToLower(prefix)
}

func slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
