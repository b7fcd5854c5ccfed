package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"홍대/합정", "홍대합정"},
		{" 홍대 / 합정 ", "홍대합정"},
		{"Online", "online"},
		{"INTERNET", "online"},
		{"온라인", "online"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLocation(tt.in), tt.in)
	}
}

func TestRegionByKey(t *testing.T) {
	r, ok := RegionByKey("홍대 합정")
	require.True(t, ok)
	assert.Equal(t, LocationHongdae, r.Key)

	r, ok = RegionByKey("Hongdae")
	require.True(t, ok)
	assert.Equal(t, LocationHongdae, r.Key)

	r, ok = RegionByKey("internet")
	require.True(t, ok)
	assert.True(t, r.IsOnline())
	assert.Empty(t, r.Polygon)

	_, ok = RegionByKey("강남")
	assert.False(t, ok)
	_, ok = RegionByKey("  ")
	assert.False(t, ok)
}

func TestMatchesRegion(t *testing.T) {
	assert.True(t, MatchesRegion("신촌", LocationSinchon))
	assert.True(t, MatchesRegion("SINCHON", LocationSinchon))
	assert.True(t, MatchesRegion("홍대 /합정", LocationHongdae))
	assert.True(t, MatchesRegion("internet", LocationOnline))
	assert.True(t, MatchesRegion("online", "인터넷"))
	assert.False(t, MatchesRegion("신촌", LocationEwha))
	assert.False(t, MatchesRegion("online", LocationSinchon))
	assert.False(t, MatchesRegion("", LocationSinchon))
}

func TestRegions_Static(t *testing.T) {
	seen := map[LocationKey]bool{}
	for _, r := range Regions() {
		assert.False(t, seen[r.Key], "duplicate %s", r.Key)
		seen[r.Key] = true
		if r.IsOnline() {
			assert.Empty(t, r.Polygon)
			continue
		}
		assert.GreaterOrEqual(t, len(r.Polygon), 3, string(r.Key))
	}
	assert.True(t, seen[LocationOnline])
}

func TestPlaceRecord_CopyOnEnrich(t *testing.T) {
	p := PlaceRecord{ID: "1", Name: "Cafe", Location: "신촌"}

	withCoords := p.WithCoordinates(Coordinates{Lat: 1, Lng: 2})
	withDistance := withCoords.WithDistance(120)

	assert.Nil(t, p.Coordinates)
	assert.Nil(t, p.Distance)
	require.NotNil(t, withDistance.Coordinates)
	assert.Equal(t, 120.0, *withDistance.Distance)
	assert.Nil(t, withCoords.Distance)
}

func TestPlaceRecord_HasTag(t *testing.T) {
	p := PlaceRecord{Status: "open", Mood: []string{"quiet", "cozy"}, PartySize: []string{"2"}}

	assert.True(t, p.HasTag("status", "open"))
	assert.False(t, p.HasTag("status", "closed"))
	assert.True(t, p.HasTag("mood", "cozy"))
	assert.False(t, p.HasTag("service", "delivery"))
	assert.True(t, p.HasTag("party_size", ""))
	assert.False(t, p.HasTag("unknown", "x"))
}
