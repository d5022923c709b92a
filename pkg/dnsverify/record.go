package dnsverify

import "strings"

const (
	// TXTHostPrefix is prepended to the domain to form the record host.
	TXTHostPrefix = "_bxsite-verify."

	// TXTValuePrefix is prepended to the token to form the record value.
	TXTValuePrefix = "bxsite-verify="
)

// TXTHost returns the host where the verification TXT record must live.
func TXTHost(domain string) string {
	return TXTHostPrefix + NormalizeDomain(domain)
}

// TXTValue returns the exact TXT record value the owner must publish.
func TXTValue(token string) string {
	return TXTValuePrefix + strings.TrimSpace(token)
}

// cleanRecord strips presentation artifacts resolvers leave around TXT data.
func cleanRecord(record string) string {
	r := strings.TrimSpace(record)
	r = strings.TrimPrefix(r, `"`)
	r = strings.TrimSuffix(r, `"`)
	r = strings.ReplaceAll(r, `\"`, `"`)
	r = strings.ReplaceAll(r, `\`, "")
	r = strings.ReplaceAll(r, `"`, "")
	return strings.TrimSpace(r)
}

// Match reports whether expected appears in any single record, or in all
// records joined with a space.
//
// The joined form accepts a value split across several records. It also
// accepts a value that straddles two unrelated records, which is a known
// permissive edge.
func Match(records []string, expected string) bool {
	expected = strings.TrimSpace(expected)
	if expected == "" || len(records) == 0 {
		return false
	}

	cleaned := make([]string, 0, len(records))
	for _, r := range records {
		c := cleanRecord(r)
		if strings.Contains(c, expected) {
			return true
		}
		cleaned = append(cleaned, c)
	}

	return strings.Contains(strings.Join(cleaned, " "), expected)
}
