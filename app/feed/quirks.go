package feed

import "strings"

// HostQuirk declares fetch-behavior overrides for one host. Some origins or
// the CDNs in front of them mishandle conditional requests and keep serving
// stale cached bodies; for those the fetcher drops validators and demands
// revalidation instead.
type HostQuirk struct {
	Host            string
	SkipConditional bool
	ForceNoCache    bool
}

// QuirkTable resolves a request host to its quirk flags
type QuirkTable struct {
	entries []HostQuirk
}

func NewQuirkTable(entries []HostQuirk) *QuirkTable {
	return &QuirkTable{entries: entries}
}

// Lookup returns the quirk for host. A quirk entry matches its host exactly
// or any subdomain of it ("npr.org" matches "feeds.npr.org"). Unknown hosts
// get the zero quirk.
func (t *QuirkTable) Lookup(host string) HostQuirk {
	host = strings.ToLower(host)
	for _, q := range t.entries {
		entry := strings.ToLower(q.Host)
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return q
		}
	}
	return HostQuirk{}
}
