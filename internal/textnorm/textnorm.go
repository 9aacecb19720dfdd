// Package textnorm normalizes Vietnamese free text so user-supplied city,
// district and amenity strings compare reliably against stored records.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, strips diacritics and collapses whitespace.
// "Thủ Đức " -> "thu duc".
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	folded, _, err := transform.String(foldTransformer, s)
	if err == nil {
		s = folded
	}

	// NFD does not decompose the Vietnamese d-with-stroke
	s = strings.ReplaceAll(s, "đ", "d")

	return strings.Join(strings.Fields(s), " ")
}

// districtAliases maps normalized district variants to one canonical name.
// The former District 2, District 9 and Thu Duc district were merged into a
// single metropolitan unit (Thu Duc City) in 2021; all variants collapse to
// the merged name.
var districtAliases = map[string]string{
	"quan 2":            "thu duc",
	"district 2":        "thu duc",
	"q2":                "thu duc",
	"q.2":               "thu duc",
	"quan 9":            "thu duc",
	"district 9":        "thu duc",
	"q9":                "thu duc",
	"q.9":               "thu duc",
	"quan thu duc":      "thu duc",
	"tp thu duc":        "thu duc",
	"thanh pho thu duc": "thu duc",
	"thu duc city":      "thu duc",
}

// cityAliases maps normalized city variants to one canonical name
var cityAliases = map[string]string{
	"hcm":              "ho chi minh",
	"tphcm":            "ho chi minh",
	"tp hcm":           "ho chi minh",
	"tp ho chi minh":   "ho chi minh",
	"sai gon":          "ho chi minh",
	"saigon":           "ho chi minh",
	"ho chi minh city": "ho chi minh",
	"hcmc":             "ho chi minh",
	"hn":               "ha noi",
	"hanoi":            "ha noi",
	"tp ha noi":        "ha noi",
}

// CanonicalDistrict normalizes a district name and collapses known aliases.
// Unknown districts keep their normalized form with the "quan"/"district"
// prefix stripped, so "Quận 1", "District 1" and "1" all compare equal.
func CanonicalDistrict(s string) string {
	n := Normalize(s)
	if canonical, ok := districtAliases[n]; ok {
		return canonical
	}
	for _, prefix := range []string{"quan ", "district ", "q."} {
		if strings.HasPrefix(n, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(n, prefix))
		}
	}
	return n
}

// CanonicalCity normalizes a city name and collapses known aliases
func CanonicalCity(s string) string {
	n := Normalize(s)
	if canonical, ok := cityAliases[n]; ok {
		return canonical
	}
	return n
}

// SameDistrict reports whether two district names refer to the same district
func SameDistrict(a, b string) bool {
	return CanonicalDistrict(a) == CanonicalDistrict(b)
}

// SameCity reports whether two city names refer to the same city
func SameCity(a, b string) bool {
	return CanonicalCity(a) == CanonicalCity(b)
}

// ContainsFold reports whether needle is a substring of haystack after
// normalization. Used for amenity matching so "wifi" matches "Wifi tốt".
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
