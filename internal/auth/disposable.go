package auth

import "strings"

var disposableDomains = map[string]struct{}{
	"yopmail.com":           {},
	"guerrillamail.com":     {},
	"tempmail.com":          {},
	"mailinator.com":        {},
	"10minutemail.com":      {},
	"burnermail.io":         {},
	"fakemailgenerator.com": {},
	"maildrop.cc":           {},
	"getnada.com":           {},
	"dispostable.com":       {},
	"throwawaymail.com":     {},
	"tempail.com":           {},
	"mytemp.email":          {},
	"mailnesia.com":         {},
	"mailcatch.com":         {},
	"mailnull.com":          {},
	"moakt.com":             {},
	"inboxalias.com":        {},
	"spamgourmet.com":       {},
	"anonemail.net":         {},
}

// IsDisposableEmail reports whether the address belongs to a known throwaway
// mail provider. Only the exact domain is matched; subdomains are not.
func IsDisposableEmail(email string) bool {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	if i := strings.IndexByte(domain, '@'); i >= 0 {
		domain = domain[:i]
	}
	_, found := disposableDomains[strings.ToLower(strings.TrimSpace(domain))]
	return found
}
