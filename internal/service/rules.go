package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rentscout/internal/model"
	"rentscout/internal/textnorm"
)

// RuleParser is the deterministic fallback behind the language-model parser.
// It runs pattern matches over the diacritic-folded query and produces a
// lower-fidelity but always well-formed Requirement.
type RuleParser struct{}

// NewRuleParser creates a new rule-based parser
func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

var (
	// "tu 2 den 3 trieu", "2-3 trieu", "khoang 2 - 3,5 trieu"
	priceRangeRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:-|–|~|den|toi|to)\s*(\d+(?:[.,]\d+)?)\s*(?:trieu|tr)\b`)
	// "duoi 3 trieu", "toi da 3 trieu"
	priceUnderRe = regexp.MustCompile(`(?:duoi|toi da|max|khong qua|it hon)\s*(\d+(?:[.,]\d+)?)\s*(?:trieu|tr)\b`)
	// "tren 2 trieu", "tu 2 trieu"
	priceOverRe = regexp.MustCompile(`(?:tren|tu|it nhat|toi thieu)\s*(\d+(?:[.,]\d+)?)\s*(?:trieu|tr)\b`)

	areaRangeRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:-|–|den|toi)\s*(\d+(?:[.,]\d+)?)\s*m2\b`)
	areaUnderRe = regexp.MustCompile(`(?:duoi|toi da)\s*(\d+(?:[.,]\d+)?)\s*m2\b`)
	areaOverRe  = regexp.MustCompile(`(?:tren|it nhat|toi thieu|rong)\s*(\d+(?:[.,]\d+)?)\s*m2\b`)
	areaExactRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*m2\b`)

	districtNumRe = regexp.MustCompile(`\b(?:quan|q\.?|district)\s*(\d{1,2})\b`)

	schoolRe   = regexp.MustCompile(`gan\s+truong\s+((?:[a-z0-9]+\s?){1,4})`)
	officeRe   = regexp.MustCompile(`gan\s+(?:cong ty|van phong|cho lam|noi lam viec)\s*((?:[a-z0-9]+\s?){0,4})`)
	landmarkRe = regexp.MustCompile(`gan\s+((?:cho|sieu thi|cong vien|benh vien|trung tam)(?:\s[a-z0-9]+){0,3})`)
)

// amenityKeywords maps folded keywords to the canonical amenity term stored
// in the Requirement.
var amenityKeywords = []struct {
	pattern string
	label   string
}{
	{"wifi", "wifi"},
	{"may lanh", "may lanh"},
	{"dieu hoa", "may lanh"},
	{"ban cong", "ban cong"},
	{"gac", "gac"},
	{"wc rieng", "wc rieng"},
	{"toilet rieng", "wc rieng"},
	{"giu xe", "giu xe"},
	{"cho de xe", "giu xe"},
	{"thang may", "thang may"},
	{"noi that", "noi that"},
	{"may giat", "may giat"},
	{"tu lanh", "tu lanh"},
	{"bep", "bep"},
	{"cua so", "cua so"},
	{"camera", "camera"},
}

// namedDistricts are the non-numbered districts the parser recognizes
var namedDistricts = []string{
	"thu duc", "binh thanh", "go vap", "tan binh", "tan phu",
	"phu nhuan", "binh tan", "nha be", "hoc mon", "cau giay",
	"dong da", "ha dong", "hai chau",
}

// cityMarkers maps folded city mentions to the canonical city
var cityMarkers = []struct {
	pattern string
	city    string
}{
	{"ho chi minh", "ho chi minh"},
	{"sai gon", "ho chi minh"},
	{"saigon", "ho chi minh"},
	{"tphcm", "ho chi minh"},
	{"hcm", "ho chi minh"},
	{"ha noi", "ha noi"},
	{"hanoi", "ha noi"},
	{"da nang", "da nang"},
}

// priorityMarkers map folded phrases to ordered priority tags
var priorityMarkers = []struct {
	pattern string
	tag     string
}{
	{"gia re", "cheap"},
	{"re", "cheap"},
	{"yen tinh", "quiet"},
	{"an ninh", "security"},
	{"rong rai", "spacious"},
	{"sach se", "clean"},
	{"thoang mat", "airy"},
	{"tien nghi", "convenient"},
}

// Parse extracts a Requirement from the query text using pattern rules.
// Semantic fields it cannot determine default to neutral values; the result
// is always non-nil and bound-valid.
func (p *RuleParser) Parse(query string) *model.Requirement {
	folded := textnorm.Normalize(query)

	req := &model.Requirement{
		Explicit:      model.ExplicitFilters{},
		Intent:        model.SemanticIntent{Lifestyle: model.LifestyleUnknown},
		Needs:         map[model.NeedKind]model.ContextualNeed{},
		LowConfidence: true,
	}

	p.parsePrice(folded, &req.Explicit)
	p.parseArea(folded, &req.Explicit)
	p.parseLocation(folded, &req.Explicit)
	p.parseAmenities(folded, &req.Explicit)
	p.parseNeeds(folded, req)
	p.parseIntent(folded, &req.Intent)

	req.AISummary = p.summarize(req)
	return req
}

func (p *RuleParser) parsePrice(folded string, f *model.ExplicitFilters) {
	if m := priceRangeRe.FindStringSubmatch(folded); m != nil {
		lo, hi := millions(m[1]), millions(m[2])
		if lo != nil && hi != nil && *lo <= *hi {
			f.PriceMin, f.PriceMax = lo, hi
			return
		}
	}
	if m := priceUnderRe.FindStringSubmatch(folded); m != nil {
		f.PriceMax = millions(m[1])
		return
	}
	if m := priceOverRe.FindStringSubmatch(folded); m != nil {
		f.PriceMin = millions(m[1])
	}
}

func (p *RuleParser) parseArea(folded string, f *model.ExplicitFilters) {
	if m := areaRangeRe.FindStringSubmatch(folded); m != nil {
		lo, hi := squareMeters(m[1]), squareMeters(m[2])
		if lo != nil && hi != nil && *lo <= *hi {
			f.AreaMin, f.AreaMax = lo, hi
			return
		}
	}
	if m := areaUnderRe.FindStringSubmatch(folded); m != nil {
		f.AreaMax = squareMeters(m[1])
		return
	}
	if m := areaOverRe.FindStringSubmatch(folded); m != nil {
		f.AreaMin = squareMeters(m[1])
		return
	}
	if m := areaExactRe.FindStringSubmatch(folded); m != nil {
		f.AreaMin = squareMeters(m[1])
	}
}

func (p *RuleParser) parseLocation(folded string, f *model.ExplicitFilters) {
	for _, marker := range cityMarkers {
		if strings.Contains(folded, marker.pattern) {
			city := marker.city
			f.City = &city
			break
		}
	}

	if m := districtNumRe.FindStringSubmatch(folded); m != nil {
		district := textnorm.CanonicalDistrict("quan " + m[1])
		f.District = &district
		return
	}
	for _, name := range namedDistricts {
		if strings.Contains(folded, name) {
			district := textnorm.CanonicalDistrict(name)
			f.District = &district
			return
		}
	}
}

func (p *RuleParser) parseAmenities(folded string, f *model.ExplicitFilters) {
	seen := map[string]bool{}
	for _, kw := range amenityKeywords {
		if strings.Contains(folded, kw.pattern) && !seen[kw.label] {
			f.Amenities = append(f.Amenities, kw.label)
			seen[kw.label] = true
		}
	}
}

func (p *RuleParser) parseNeeds(folded string, req *model.Requirement) {
	if m := schoolRe.FindStringSubmatch(folded); m != nil {
		req.Needs[model.NeedSchool] = model.ContextualNeed{
			Kind:     model.NeedSchool,
			Required: true,
			Place:    "truong " + strings.TrimSpace(m[1]),
		}
	}
	if m := officeRe.FindStringSubmatch(folded); m != nil {
		need := model.ContextualNeed{Kind: model.NeedOffice, Required: true}
		if place := strings.TrimSpace(m[1]); place != "" {
			need.Place = place
		}
		req.Needs[model.NeedOffice] = need
	} else if m := landmarkRe.FindStringSubmatch(folded); m != nil {
		req.Needs[model.NeedLandmark] = model.ContextualNeed{
			Kind:     model.NeedLandmark,
			Required: false,
			Place:    strings.TrimSpace(m[1]),
		}
	}
	if strings.Contains(folded, "yen tinh") {
		req.Needs[model.NeedQuiet] = model.ContextualNeed{Kind: model.NeedQuiet, Level: "high"}
	}
	if strings.Contains(folded, "an ninh") {
		req.Needs[model.NeedSecurity] = model.ContextualNeed{Kind: model.NeedSecurity, Level: "high"}
	}
	if strings.Contains(folded, "ben xe") || strings.Contains(folded, "xe buyt") || strings.Contains(folded, "metro") {
		req.Needs[model.NeedTransport] = model.ContextualNeed{Kind: model.NeedTransport, Level: "high"}
	}
}

func (p *RuleParser) parseIntent(folded string, intent *model.SemanticIntent) {
	seen := map[string]bool{}
	for _, marker := range priorityMarkers {
		if strings.Contains(folded, marker.pattern) && !seen[marker.tag] {
			intent.Priorities = append(intent.Priorities, marker.tag)
			seen[marker.tag] = true
		}
	}

	switch {
	case strings.Contains(folded, "sinh vien"):
		intent.Lifestyle = model.LifestyleStudent
	case strings.Contains(folded, "gia dinh"):
		intent.Lifestyle = model.LifestyleFamily
	case strings.Contains(folded, "cap doi") || strings.Contains(folded, "vo chong"):
		intent.Lifestyle = model.LifestyleCouple
	case strings.Contains(folded, "di lam") || strings.Contains(folded, "nhan vien"):
		intent.Lifestyle = model.LifestyleWorker
	}
}

func (p *RuleParser) summarize(req *model.Requirement) string {
	parts := []string{"Tìm phòng trọ"}
	f := req.Explicit
	if f.PriceMin != nil && f.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("giá %.1f-%.1f triệu", *f.PriceMin/1e6, *f.PriceMax/1e6))
	} else if f.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("giá dưới %.1f triệu", *f.PriceMax/1e6))
	}
	if f.District != nil {
		parts = append(parts, "khu vực "+*f.District)
	}
	if len(f.Amenities) > 0 {
		parts = append(parts, "có "+strings.Join(f.Amenities, ", "))
	}
	for _, need := range req.Needs {
		if need.Place != "" {
			parts = append(parts, "gần "+need.Place)
		}
	}
	return strings.Join(parts, ", ")
}

// millions parses a folded numeric token and scales it from triệu to VND,
// returning nil when the value falls outside the domain price range.
func millions(token string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return nil
	}
	v *= 1_000_000
	if v < model.PriceFloor || v > model.PriceCeil {
		return nil
	}
	return &v
}

// squareMeters parses a folded numeric token as m², returning nil when the
// value falls outside the domain area range.
func squareMeters(token string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", "."), 64)
	if err != nil {
		return nil
	}
	if v < model.AreaFloor || v > model.AreaCeil {
		return nil
	}
	return &v
}
