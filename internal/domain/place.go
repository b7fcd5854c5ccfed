package domain

import (
	"hash/fnv"
	"strconv"
)

// PlaceRecord - одно заведение из контент-бэкенда.
// Записи не мутируются: обогащение координатами и расстоянием
// возвращает новую копию.
type PlaceRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	Address     string       `json:"address,omitempty"`
	KakaoMapURL string       `json:"kakaomap,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Rating      float64      `json:"rating"`
	Status      string       `json:"status,omitempty"`
	Mood        []string     `json:"mood,omitempty"`
	Service     []string     `json:"service,omitempty"`
	PartySize   []string     `json:"party_size,omitempty"`
	Distance    *float64     `json:"distance,omitempty"`
}

// IsOnline - заведение без физического адреса
func (p PlaceRecord) IsOnline() bool {
	return IsOnlineLocation(p.Location)
}

// WithCoordinates returns a copy of p carrying c.
func (p PlaceRecord) WithCoordinates(c Coordinates) PlaceRecord {
	p.Coordinates = &c
	return p
}

// WithDistance returns a copy of p carrying the distance in meters.
func (p PlaceRecord) WithDistance(meters float64) PlaceRecord {
	p.Distance = &meters
	return p
}

// HasTag проверяет наличие тега в любом из теговых полей
func (p PlaceRecord) HasTag(field, value string) bool {
	var values []string
	switch field {
	case "status":
		return value == "" || p.Status == value
	case "mood":
		values = p.Mood
	case "service":
		values = p.Service
	case "party_size":
		values = p.PartySize
	default:
		return false
	}
	if value == "" {
		return true
	}
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Fingerprint - хеш полей, от которых зависят координаты.
// Если запись в бэкенде поменялась, сохранённые координаты не подходят.
func (p PlaceRecord) Fingerprint() string {
	h := fnv.New64a()
	for _, s := range []string{p.Name, p.Location, p.Address, p.KakaoMapURL} {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
