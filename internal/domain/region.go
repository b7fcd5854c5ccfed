package domain

import (
	"strings"
	"unicode"
)

// LocationKey - ключ региона в том виде, в котором он приходит из контент-бэкенда
type LocationKey string

// Известные регионы. Перечисление закрытое и статическое.
const (
	LocationSinchon LocationKey = "신촌"
	LocationEwha    LocationKey = "이대"
	LocationHongdae LocationKey = "홍대/합정"
	LocationYeonnam LocationKey = "연남/연희"
	LocationOnline  LocationKey = "온라인"
)

const normalizedOnline = "online"

// Region - именованная зона с полигоном. У онлайн-зоны полигона нет.
type Region struct {
	Key     LocationKey   `json:"key"`
	Aliases []string      `json:"aliases,omitempty"`
	Polygon []Coordinates `json:"polygon"`
	Center  Coordinates   `json:"center"`
}

// IsOnline reports whether r is the synthetic online zone.
func (r Region) IsOnline() bool {
	return r.Key == LocationOnline
}

var regions = []Region{
	{
		Key:     LocationSinchon,
		Aliases: []string{"sinchon"},
		Polygon: []Coordinates{
			{Lat: 37.5598, Lng: 126.9335},
			{Lat: 37.5601, Lng: 126.9420},
			{Lat: 37.5540, Lng: 126.9428},
			{Lat: 37.5522, Lng: 126.9352},
		},
		Center: Coordinates{Lat: 37.5565, Lng: 126.9384},
	},
	{
		Key:     LocationEwha,
		Aliases: []string{"ewha", "이화여대"},
		Polygon: []Coordinates{
			{Lat: 37.5640, Lng: 126.9420},
			{Lat: 37.5645, Lng: 126.9500},
			{Lat: 37.5580, Lng: 126.9505},
			{Lat: 37.5575, Lng: 126.9428},
		},
		Center: Coordinates{Lat: 37.5610, Lng: 126.9463},
	},
	{
		Key:     LocationHongdae,
		Aliases: []string{"hongdae", "홍대", "합정"},
		Polygon: []Coordinates{
			{Lat: 37.5590, Lng: 126.9140},
			{Lat: 37.5592, Lng: 126.9290},
			{Lat: 37.5500, Lng: 126.9300},
			{Lat: 37.5470, Lng: 126.9150},
		},
		Center: Coordinates{Lat: 37.5543, Lng: 126.9220},
	},
	{
		Key:     LocationYeonnam,
		Aliases: []string{"yeonnam", "연남", "연희"},
		Polygon: []Coordinates{
			{Lat: 37.5700, Lng: 126.9180},
			{Lat: 37.5705, Lng: 126.9330},
			{Lat: 37.5600, Lng: 126.9300},
			{Lat: 37.5595, Lng: 126.9190},
		},
		Center: Coordinates{Lat: 37.5650, Lng: 126.9250},
	},
	{
		Key:     LocationOnline,
		Aliases: []string{"online", "internet", "인터넷"},
		Center:  Coordinates{Lat: 37.5565, Lng: 126.9384},
	},
}

// Regions returns the static region table. Callers must not modify it.
func Regions() []Region {
	return regions
}

// RegionByKey ищет регион по ключу или алиасу без учёта регистра, пробелов и слэшей
func RegionByKey(s string) (Region, bool) {
	n := NormalizeLocation(s)
	if n == "" {
		return Region{}, false
	}
	for _, r := range regions {
		if NormalizeLocation(string(r.Key)) == n {
			return r, true
		}
		for _, a := range r.Aliases {
			if NormalizeLocation(a) == n {
				return r, true
			}
		}
	}
	return Region{}, false
}

// IsRegionName - строка совпадает с названием известного региона
func IsRegionName(s string) bool {
	_, ok := RegionByKey(s)
	return ok
}

// NormalizeLocation приводит строку локации к виду для сравнения:
// нижний регистр, без пробелов и слэшей, "internet" == "online".
func NormalizeLocation(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || r == '/' {
			continue
		}
		b.WriteRune(r)
	}

	n := b.String()
	switch n {
	case "internet", "인터넷", "온라인":
		return normalizedOnline
	}
	return n
}

// IsOnlineLocation - локация является онлайн-сентинелом
func IsOnlineLocation(s string) bool {
	return NormalizeLocation(s) == normalizedOnline
}

// MatchesRegion сравнивает локацию места с выбранным регионом
func MatchesRegion(location string, key LocationKey) bool {
	if IsOnlineLocation(string(key)) {
		return IsOnlineLocation(location)
	}
	want, ok := RegionByKey(string(key))
	if !ok {
		return NormalizeLocation(location) == NormalizeLocation(string(key))
	}
	got, ok := RegionByKey(location)
	return ok && got.Key == want.Key
}
