package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rentscout/internal/model"
	"rentscout/internal/utils"
)

// Interpreter turns a free-text request into a structured Requirement. The
// language-model strategy runs first; on backend failure, malformed output,
// or invalid bounds the rule-based parser takes over, so the pipeline always
// receives a valid Requirement and the interpreter never errors outward.
type Interpreter struct {
	ai       AIClient
	rules    *RuleParser
	validate *validator.Validate
	timeout  time.Duration
	log      *zap.Logger
}

// NewInterpreter creates a new query interpreter
func NewInterpreter(ai AIClient, rules *RuleParser, log *zap.Logger) *Interpreter {
	return &Interpreter{
		ai:       ai,
		rules:    rules,
		validate: validator.New(),
		timeout:  20 * time.Second,
		log:      log,
	}
}

const interpreterPrompt = `You are a rental search assistant for Vietnam. Parse the user's natural language query into structured JSON filters.

Extract the following when present:
- price_min, price_max: monthly rent in VND (number). "2 triệu" = 2000000, "2tr5" = 2500000, "từ 2 đến 3 triệu" = [2000000, 3000000], "dưới 3 triệu" = max 3000000.
- area_min, area_max: room area in m². "trên 25m2" = min 25.
- city: city name, e.g. "Hồ Chí Minh", "Hà Nội". "Sài Gòn", "HCM", "TPHCM" all mean "Hồ Chí Minh".
- district: district name. "Quận 2", "Quận 9" and "Thủ Đức" all mean "Thủ Đức" (merged city).
- amenities: array of required amenities from this vocabulary: wifi, may lanh, ban cong, gac, wc rieng, giu xe, thang may, noi that, may giat, tu lanh, bep, cua so, camera.
- priorities: ordered array of tags, most important first: cheap, quiet, security, spacious, clean, airy, convenient.
- lifestyle: one of student, worker, family, couple, unknown.
- needs: array of contextual needs, each {"kind", "required", "level", "place", "max_travel_time", "max_distance"}. kind is one of: security, transport, business, quiet, dining, school, office, landmark, entertainment. Use "place" for a named school/office/landmark ("gần trường FPT" -> kind "school", place "trường FPT"). max_travel_time is seconds, max_distance is km; set them only when the user gives explicit limits ("cách chỗ làm 15 phút" -> max_travel_time 900).
- summary: one short Vietnamese sentence restating the request.

Rules:
- Respond ONLY with valid JSON. Omit absent fields.
- Prices are monthly rent: valid range 500000-50000000 VND. Areas: 5-200 m².
- Never invent constraints the user did not state.

Examples:
Query: "phòng gần trường FPT, khoảng 2-3 triệu, có wifi"
Response: {"price_min": 2000000, "price_max": 3000000, "amenities": ["wifi"], "needs": [{"kind": "school", "required": true, "place": "trường FPT"}], "summary": "Phòng 2-3 triệu có wifi gần trường FPT"}

Query: "phòng trọ Thủ Đức dưới 4 triệu, yên tĩnh, an ninh tốt, cho sinh viên"
Response: {"price_max": 4000000, "district": "Thủ Đức", "priorities": ["quiet", "security"], "lifestyle": "student", "needs": [{"kind": "quiet", "level": "high"}, {"kind": "security", "level": "high"}], "summary": "Phòng sinh viên dưới 4 triệu ở Thủ Đức, yên tĩnh an ninh"}

Query: "căn hộ mini gần công ty ở quận 1, cách chỗ làm tối đa 15 phút, 5-7 triệu"
Response: {"price_min": 5000000, "price_max": 7000000, "district": "Quận 1", "needs": [{"kind": "office", "required": true, "max_travel_time": 900}], "summary": "Căn hộ mini 5-7 triệu gần chỗ làm ở Quận 1"}

Query: "phòng rộng trên 25m2 có ban công, gần chợ, Gò Vấp"
Response: {"area_min": 25, "district": "Gò Vấp", "amenities": ["ban cong"], "priorities": ["spacious"], "needs": [{"kind": "landmark", "place": "chợ"}], "summary": "Phòng trên 25m2 có ban công gần chợ ở Gò Vấp"}`

// Interpret parses query text into a Requirement. It never returns an error:
// any model failure, parse failure, or panic routes to the rule parser.
func (i *Interpreter) Interpret(ctx context.Context, query string, userCtx *model.UserContext) (req *model.Requirement) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("interpreter panic, using rule fallback", zap.Any("panic", r))
			req = i.rules.Parse(query)
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return &model.Requirement{
			Intent:        model.SemanticIntent{Lifestyle: model.LifestyleUnknown},
			Needs:         map[model.NeedKind]model.ContextualNeed{},
			LowConfidence: true,
		}
	}

	if i.ai == nil || !i.ai.IsEnabled() {
		return i.rules.Parse(query)
	}

	parsed, err := i.parseWithModel(ctx, query, userCtx)
	if err != nil {
		i.log.Warn("model parse failed, using rule fallback",
			zap.String("query", query), zap.Error(err))
		return i.rules.Parse(query)
	}
	return parsed
}

func (i *Interpreter) parseWithModel(ctx context.Context, query string, userCtx *model.UserContext) (*model.Requirement, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.ai.Complete(ctx, i.promptFor(userCtx), query)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	var wire modelRequirement
	if err := utils.ParseModelJSON(raw, &wire); err != nil {
		return nil, fmt.Errorf("malformed model output: %w", err)
	}

	req, err := i.fromWire(&wire)
	if err != nil {
		return nil, fmt.Errorf("invalid model output: %w", err)
	}
	return req, nil
}

// promptFor augments the base prompt with the personalization hint
func (i *Interpreter) promptFor(userCtx *model.UserContext) string {
	if userCtx == nil {
		return interpreterPrompt
	}
	hint, err := json.Marshal(userCtx)
	if err != nil {
		return interpreterPrompt
	}
	return interpreterPrompt + "\n\nUser history (use only to resolve ambiguity, never to add constraints): " + string(hint)
}

// fromWire maps and validates the model payload into a Requirement. Any
// out-of-domain bound or inverted range rejects the whole payload.
func (i *Interpreter) fromWire(wire *modelRequirement) (*model.Requirement, error) {
	req := &model.Requirement{
		Explicit: model.ExplicitFilters{
			PriceMin:  wire.PriceMin,
			PriceMax:  wire.PriceMax,
			AreaMin:   wire.AreaMin,
			AreaMax:   wire.AreaMax,
			City:      wire.City,
			District:  wire.District,
			Amenities: wire.Amenities,
		},
		Intent: model.SemanticIntent{
			Priorities: wire.Priorities,
			Lifestyle:  model.LifestyleUnknown,
		},
		Needs:     map[model.NeedKind]model.ContextualNeed{},
		AISummary: wire.Summary,
	}

	switch model.Lifestyle(wire.Lifestyle) {
	case model.LifestyleStudent, model.LifestyleWorker, model.LifestyleFamily, model.LifestyleCouple:
		req.Intent.Lifestyle = model.Lifestyle(wire.Lifestyle)
	}

	for _, n := range wire.Needs {
		kind := model.NeedKind(strings.ToLower(strings.TrimSpace(n.Kind)))
		if !model.KnownNeedKinds[kind] {
			// Unknown kinds are dropped, not fatal
			continue
		}
		req.Needs[kind] = model.ContextualNeed{
			Kind:          kind,
			Required:      n.Required,
			Level:         n.Level,
			Place:         n.Place,
			MaxTravelTime: n.MaxTravelTime,
			MaxDistance:   n.MaxDistance,
		}
	}

	if err := i.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Explicit.BoundsValid() {
		return nil, fmt.Errorf("filter bounds outside domain range")
	}
	return req, nil
}
