package domain

// KeyPrefix namespaces every Redis key written by this service.
const KeyPrefix = "dirsearch:"

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_-]+ (tenant ids, list
// names, entry types). Keys and index names are built from these, so the
// character set must stay Redis- and query-syntax-safe.
func IsValidIdentifier(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
