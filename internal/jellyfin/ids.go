package jellyfin

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeID rewrites any GUID representation (hyphenated, bare, braced,
// upper or lower case) to the canonical lowercase 32 hex digit form.
func NormalizeID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return canonical(u), true
}

// NormalizeIDs normalizes and deduplicates ids, dropping unparseable values.
// Input order is preserved.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, ok := NormalizeID(raw)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IDFromBytes decodes a 16 byte GUID as written by .NET (Guid.ToByteArray),
// where the first three groups are little-endian.
func IDFromBytes(b []byte) (string, bool) {
	if len(b) != 16 {
		// Some stores keep GUIDs as text in BLOB columns
		return NormalizeID(string(b))
	}
	var swapped [16]byte
	copy(swapped[:], b)
	swapped[0], swapped[1], swapped[2], swapped[3] = b[3], b[2], b[1], b[0]
	swapped[4], swapped[5] = b[5], b[4]
	swapped[6], swapped[7] = b[7], b[6]

	u, err := uuid.FromBytes(swapped[:])
	if err != nil {
		return "", false
	}
	return canonical(u), true
}

func canonical(u uuid.UUID) string {
	return strings.ReplaceAll(u.String(), "-", "")
}
