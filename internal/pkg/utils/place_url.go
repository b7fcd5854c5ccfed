package utils

import (
	"net/url"
	"strings"
)

// KakaoPlaceID извлекает идентификатор места из ссылки Kakao Map.
// Поддерживаются place.map.kakao.com/<id>, place.map.kakao.com/m/<id>,
// map.kakao.com/link/map/<id> и map.kakao.com/?itemId=<id>.
// Короткие ссылки без id дают пустую строку.
func KakaoPlaceID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if !strings.HasSuffix(u.Hostname(), "kakao.com") {
		return ""
	}

	if id := u.Query().Get("itemId"); isDigits(id) {
		return id
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		// link/map/<id> допускает "<id>,lat,lng"
		seg := strings.SplitN(segments[i], ",", 2)[0]
		if isDigits(seg) {
			return seg
		}
	}

	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
