// Package setcookie reduces raw Set-Cookie headers to the minimal cookie set a
// platform session needs.
//
// Platforms answer a login with several Set-Cookie headers, some of which only
// clear old cookies (value "deleted", or an expiry date in the past). Those are
// never part of the session.
package setcookie

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/user/relay-service/internal/entity"
)

const deletedValue = "deleted"

// expiryDate matches the date part of an "expires=Thu, 01-Jan-1970 00:00:01 GMT" attribute,
// which is what remains of a fragment after splitting the header on commas.
var expiryDate = regexp.MustCompile(`\d{2}-[A-Za-z]{3}-\d{4} \d{2}:\d{2}:\d{2}`)

// Raw joins every Set-Cookie header of resp into one comma-separated string,
// the form a browser fetch API exposes.
func Raw(header http.Header) string {
	return strings.Join(header.Values("Set-Cookie"), ", ")
}

// Named pulls the given cookies out of a raw header, in the order of names.
// When a name is set more than once the last non-deleted value wins; names
// that are absent or only deleted are skipped.
func Named(raw string, names ...string) entity.CookiePairs {
	var pairs entity.CookiePairs
	for _, name := range names {
		re := regexp.MustCompile(`(?:^|[;,\s])` + regexp.QuoteMeta(name) + `=([^;,\s]+)`)
		value := ""
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			if m[1] != deletedValue {
				value = m[1]
			}
		}
		if value != "" {
			pairs = append(pairs, entity.CookiePair{Name: name, Value: value})
		}
	}
	return pairs
}

// Essential keeps the leading name=value of every comma-separated fragment,
// dropping attributes, expiry-date fragments and deletion directives.
// A repeated name keeps its first position and its last value.
func Essential(raw string) entity.CookiePairs {
	var pairs entity.CookiePairs
	index := make(map[string]int)

	for _, fragment := range strings.Split(raw, ",") {
		nameValue := strings.TrimSpace(strings.SplitN(fragment, ";", 2)[0])
		if nameValue == "" || expiryDate.MatchString(nameValue) || strings.Contains(nameValue, "="+deletedValue) {
			continue
		}
		name, value, ok := strings.Cut(nameValue, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || isAttribute(name) {
			continue
		}
		if i, seen := index[name]; seen {
			pairs[i].Value = value
			continue
		}
		index[name] = len(pairs)
		pairs = append(pairs, entity.CookiePair{Name: name, Value: value})
	}
	return pairs
}

// isAttribute reports cookie attribute names that can lead a fragment when a
// header was split inside an attribute list.
func isAttribute(name string) bool {
	switch strings.ToLower(name) {
	case "path", "domain", "expires", "max-age", "samesite", "secure", "httponly":
		return true
	}
	return false
}
