package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"diacritics stripped", "Thủ Đức", "thu duc"},
		{"d with stroke", "Đà Nẵng", "da nang"},
		{"whitespace collapsed", "  quận   Bình  Thạnh ", "quan binh thanh"},
		{"mixed case", "PHÒNG TRỌ Giá Rẻ", "phong tro gia re"},
		{"already plain", "go vap", "go vap"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestCanonicalDistrict(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"merged district 2", "Quận 2", "thu duc"},
		{"merged district 9", "district 9", "thu duc"},
		{"short alias q2", "q2", "thu duc"},
		{"thu duc city", "TP Thủ Đức", "thu duc"},
		{"numbered prefix stripped", "Quận 1", "1"},
		{"district prefix stripped", "District 7", "7"},
		{"named district unchanged", "Bình Thạnh", "binh thanh"},
		{"bare number", "3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDistrict(tt.input))
		})
	}
}

func TestSameDistrict(t *testing.T) {
	assert.True(t, SameDistrict("Quận 2", "Thủ Đức"))
	assert.True(t, SameDistrict("quan 9", "TP Thu Duc"))
	assert.True(t, SameDistrict("Quận 1", "district 1"))
	assert.False(t, SameDistrict("Quận 1", "Quận 3"))
	assert.False(t, SameDistrict("Bình Thạnh", "Gò Vấp"))
}

func TestSameCity(t *testing.T) {
	assert.True(t, SameCity("HCM", "Hồ Chí Minh"))
	assert.True(t, SameCity("Sài Gòn", "TPHCM"))
	assert.True(t, SameCity("Hà Nội", "hanoi"))
	assert.False(t, SameCity("Hà Nội", "Sài Gòn"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Wifi tốt, máy lạnh mới", "wifi"))
	assert.True(t, ContainsFold("Máy Lạnh", "may lanh"))
	assert.False(t, ContainsFold("gác lửng rộng", "wifi"))
}
