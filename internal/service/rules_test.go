package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentscout/internal/model"
)

func TestRuleParser_PriceAndAmenities(t *testing.T) {
	parser := NewRuleParser()

	req := parser.Parse("phòng gần trường FPT, khoảng 2-3 triệu, có wifi")
	require.NotNil(t, req)
	assert.True(t, req.LowConfidence)

	require.NotNil(t, req.Explicit.PriceMin)
	require.NotNil(t, req.Explicit.PriceMax)
	assert.InDelta(t, 2_000_000, *req.Explicit.PriceMin, 1)
	assert.InDelta(t, 3_000_000, *req.Explicit.PriceMax, 1)

	assert.Contains(t, req.Explicit.Amenities, "wifi")

	need, ok := req.Needs[model.NeedSchool]
	require.True(t, ok)
	assert.True(t, need.Required)
	assert.Equal(t, "truong fpt", need.Place)
}

func TestRuleParser_PriceBounds(t *testing.T) {
	parser := NewRuleParser()

	tests := []struct {
		name    string
		query   string
		wantMin *float64
		wantMax *float64
	}{
		{"under", "phòng dưới 3 triệu", nil, f64(3_000_000)},
		{"over", "phòng trên 2 triệu", f64(2_000_000), nil},
		{"range with den", "từ 2 đến 3,5 triệu", f64(2_000_000), f64(3_500_000)},
		{"out of bounds ignored", "phòng dưới 500 triệu", nil, nil},
		{"no price", "phòng quận 1", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := parser.Parse(tt.query)
			if tt.wantMin == nil {
				assert.Nil(t, req.Explicit.PriceMin)
			} else {
				require.NotNil(t, req.Explicit.PriceMin)
				assert.InDelta(t, *tt.wantMin, *req.Explicit.PriceMin, 1)
			}
			if tt.wantMax == nil {
				assert.Nil(t, req.Explicit.PriceMax)
			} else {
				require.NotNil(t, req.Explicit.PriceMax)
				assert.InDelta(t, *tt.wantMax, *req.Explicit.PriceMax, 1)
			}
		})
	}
}

func TestRuleParser_Area(t *testing.T) {
	parser := NewRuleParser()

	req := parser.Parse("phòng 20-30 m2 có gác")
	require.NotNil(t, req.Explicit.AreaMin)
	require.NotNil(t, req.Explicit.AreaMax)
	assert.InDelta(t, 20, *req.Explicit.AreaMin, 0.01)
	assert.InDelta(t, 30, *req.Explicit.AreaMax, 0.01)
	assert.Contains(t, req.Explicit.Amenities, "gac")

	req = parser.Parse("phòng rộng 25 m2")
	require.NotNil(t, req.Explicit.AreaMin)
	assert.InDelta(t, 25, *req.Explicit.AreaMin, 0.01)
	assert.Nil(t, req.Explicit.AreaMax)
}

func TestRuleParser_Location(t *testing.T) {
	parser := NewRuleParser()

	tests := []struct {
		name         string
		query        string
		wantDistrict string
		wantCity     string
	}{
		{"numbered district", "phòng quận 7", "7", ""},
		{"merged district", "phòng quận 2 giá rẻ", "thu duc", ""},
		{"named district", "phòng Bình Thạnh", "binh thanh", ""},
		{"city and district", "phòng quận 1 Sài Gòn", "1", "ho chi minh"},
		{"city only", "phòng trọ Hà Nội", "", "ha noi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := parser.Parse(tt.query)
			if tt.wantDistrict == "" {
				assert.Nil(t, req.Explicit.District)
			} else {
				require.NotNil(t, req.Explicit.District)
				assert.Equal(t, tt.wantDistrict, *req.Explicit.District)
			}
			if tt.wantCity == "" {
				assert.Nil(t, req.Explicit.City)
			} else {
				require.NotNil(t, req.Explicit.City)
				assert.Equal(t, tt.wantCity, *req.Explicit.City)
			}
		})
	}
}

func TestRuleParser_Needs(t *testing.T) {
	parser := NewRuleParser()

	req := parser.Parse("phòng yên tĩnh an ninh gần chợ Bến Thành")

	quiet, ok := req.Needs[model.NeedQuiet]
	require.True(t, ok)
	assert.Equal(t, "high", quiet.Level)

	security, ok := req.Needs[model.NeedSecurity]
	require.True(t, ok)
	assert.Equal(t, "high", security.Level)

	landmark, ok := req.Needs[model.NeedLandmark]
	require.True(t, ok)
	assert.False(t, landmark.Required)
	assert.Equal(t, "cho ben thanh", landmark.Place)
}

func TestRuleParser_OfficeBeatsLandmark(t *testing.T) {
	parser := NewRuleParser()

	// "cho lam" also starts with the landmark marker "cho"
	req := parser.Parse("phòng gần chỗ làm")

	_, hasOffice := req.Needs[model.NeedOffice]
	_, hasLandmark := req.Needs[model.NeedLandmark]
	assert.True(t, hasOffice)
	assert.False(t, hasLandmark)
}

func TestRuleParser_Lifestyle(t *testing.T) {
	parser := NewRuleParser()

	assert.Equal(t, model.LifestyleStudent, parser.Parse("phòng cho sinh viên").Intent.Lifestyle)
	assert.Equal(t, model.LifestyleFamily, parser.Parse("phòng cho gia đình").Intent.Lifestyle)
	assert.Equal(t, model.LifestyleWorker, parser.Parse("phòng cho người đi làm").Intent.Lifestyle)
	assert.Equal(t, model.LifestyleUnknown, parser.Parse("phòng trọ").Intent.Lifestyle)
}

func TestRuleParser_AlwaysBoundValid(t *testing.T) {
	parser := NewRuleParser()

	for _, query := range []string{
		"",
		"phòng dưới 999 triệu trên 1000 m2",
		"xyz abc",
		"phòng 2-3 triệu quận 2 gần trường kinh tế có wifi máy lạnh yên tĩnh",
	} {
		req := parser.Parse(query)
		require.NotNil(t, req)
		assert.True(t, req.Explicit.BoundsValid(), "query %q", query)
		assert.NotNil(t, req.Needs)
	}
}

func f64(v float64) *float64 { return &v }
