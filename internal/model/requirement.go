package model

// Domain-valid bounds for requirement filters (VND and m²)
const (
	PriceFloor = 500_000
	PriceCeil  = 50_000_000
	AreaFloor  = 5
	AreaCeil   = 200
)

// ExplicitFilters are the hard constraints extracted from a query. Bounds,
// when present, lie within the domain-valid ranges with min <= max.
type ExplicitFilters struct {
	PriceMin  *float64 `json:"price_min,omitempty" validate:"omitempty,gte=500000,lte=50000000"`
	PriceMax  *float64 `json:"price_max,omitempty" validate:"omitempty,gte=500000,lte=50000000"`
	AreaMin   *float64 `json:"area_min,omitempty" validate:"omitempty,gte=5,lte=200"`
	AreaMax   *float64 `json:"area_max,omitempty" validate:"omitempty,gte=5,lte=200"`
	City      *string  `json:"city,omitempty"`
	District  *string  `json:"district,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Lifestyle is a coarse living-style classification
type Lifestyle string

const (
	LifestyleUnknown Lifestyle = "unknown"
	LifestyleStudent Lifestyle = "student"
	LifestyleWorker  Lifestyle = "worker"
	LifestyleFamily  Lifestyle = "family"
	LifestyleCouple  Lifestyle = "couple"
)

// SemanticIntent captures the soft preferences of a query
type SemanticIntent struct {
	Priorities []string  `json:"priorities,omitempty"` // ordered tags, most important first
	Lifestyle  Lifestyle `json:"lifestyle,omitempty"`
}

// NeedKind enumerates the recognized contextual need kinds. Dispatch is by
// kind, never by substring matching on need names.
type NeedKind string

const (
	NeedSecurity      NeedKind = "security"
	NeedTransport     NeedKind = "transport"
	NeedBusiness      NeedKind = "business"
	NeedQuiet         NeedKind = "quiet"
	NeedDining        NeedKind = "dining"
	NeedSchool        NeedKind = "school"
	NeedOffice        NeedKind = "office"
	NeedLandmark      NeedKind = "landmark"
	NeedEntertainment NeedKind = "entertainment"
)

// KnownNeedKinds lists every kind the pipeline understands
var KnownNeedKinds = map[NeedKind]bool{
	NeedSecurity:      true,
	NeedTransport:     true,
	NeedBusiness:      true,
	NeedQuiet:         true,
	NeedDining:        true,
	NeedSchool:        true,
	NeedOffice:        true,
	NeedLandmark:      true,
	NeedEntertainment: true,
}

// Destination reports whether the need names a place the user commutes to
func (k NeedKind) Destination() bool {
	return k == NeedSchool || k == NeedOffice || k == NeedLandmark
}

// ContextualNeed is one typed contextual requirement
type ContextualNeed struct {
	Kind          NeedKind `json:"kind"`
	Required      bool     `json:"required"`
	Level         string   `json:"level,omitempty"` // "low", "medium", "high"
	Place         string   `json:"place,omitempty"` // named school/office/landmark
	MaxTravelTime *int     `json:"max_travel_time,omitempty" validate:"omitempty,gt=0"` // seconds
	MaxDistance   *float64 `json:"max_distance,omitempty" validate:"omitempty,gt=0"`    // km
}

// Requirement is the structured output of query interpretation
type Requirement struct {
	Explicit  ExplicitFilters             `json:"explicit_filters"`
	Intent    SemanticIntent              `json:"semantic_intent"`
	Needs     map[NeedKind]ContextualNeed `json:"contextual_needs,omitempty"`
	AISummary string                      `json:"ai_summary,omitempty"`

	// LowConfidence marks a requirement produced by the rule-based
	// fallback, or one where semantic fields defaulted to neutral values.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// BoundsValid reports whether every present bound lies within the domain
// range with min <= max.
func (f *ExplicitFilters) BoundsValid() bool {
	inRange := func(v *float64, lo, hi float64) bool {
		return v == nil || (*v >= lo && *v <= hi)
	}
	if !inRange(f.PriceMin, PriceFloor, PriceCeil) || !inRange(f.PriceMax, PriceFloor, PriceCeil) {
		return false
	}
	if !inRange(f.AreaMin, AreaFloor, AreaCeil) || !inRange(f.AreaMax, AreaFloor, AreaCeil) {
		return false
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return false
	}
	if f.AreaMin != nil && f.AreaMax != nil && *f.AreaMin > *f.AreaMax {
		return false
	}
	return true
}
