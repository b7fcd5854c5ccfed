package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
)

var (
	sinchonStation = domain.Coordinates{Lat: 37.5552, Lng: 126.9369}
	eagleCafe      = domain.Coordinates{Lat: 37.558572, Lng: 126.936893}
	yonseiRo       = domain.Coordinates{Lat: 37.5573, Lng: 126.9371}
)

func newTestResolver(search *MockPlaceSearchRepository) *usecase.ChainResolver {
	return usecase.NewChainResolver(search, usecase.ResolverOptions{
		Reference:        sinchonStation,
		RegionHint:       "신촌",
		SanityThresholdM: 5000,
	}, zap.NewNop())
}

func TestChainResolver_Online(t *testing.T) {
	search := &MockPlaceSearchRepository{}
	r := newTestResolver(search)

	for _, loc := range []string{"online", "Internet", "온라인", " 인터넷 "} {
		res := r.Resolve(context.Background(), domain.PlaceRecord{
			ID:          "p1",
			Name:        "Webshop",
			Location:    loc,
			Address:     "서울 서대문구 연세로 1",
			KakaoMapURL: "https://place.map.kakao.com/1",
		})
		assert.False(t, res.Found(), loc)
	}

	search.AssertNotCalled(t, "KeywordSearch", mock.Anything, mock.Anything, mock.Anything)
	search.AssertNotCalled(t, "AddressSearch", mock.Anything, mock.Anything)
}

func TestChainResolver_KakaoURLMatch(t *testing.T) {
	search := &MockPlaceSearchRepository{}
	search.On("KeywordSearch", mock.Anything, "독수리다방", mock.Anything).Return([]domain.PlaceSearchResult{
		{ID: "111", Name: "독수리다방 2호점", Coordinates: yonseiRo},
		{ID: "26338954", Name: "독수리다방", PlaceURL: "http://place.map.kakao.com/26338954", Coordinates: eagleCafe},
	}, nil).Once()

	r := newTestResolver(search)
	res := r.Resolve(context.Background(), domain.PlaceRecord{
		ID:          "p1",
		Name:        "독수리다방",
		Location:    "신촌",
		Address:     "서울 서대문구 연세로 36",
		KakaoMapURL: "https://place.map.kakao.com/26338954",
	})

	require.True(t, res.Found())
	assert.Equal(t, eagleCafe, *res.Coordinates)
	assert.Equal(t, domain.StrategyKakaoURL, res.Strategy)
	assert.False(t, res.Flagged)
	search.AssertExpectations(t)
	search.AssertNotCalled(t, "AddressSearch", mock.Anything, mock.Anything)
}

func TestChainResolver_KakaoURLMatchOnRegionQuery(t *testing.T) {
	search := &MockPlaceSearchRepository{}
	search.On("KeywordSearch", mock.Anything, "카페", mock.Anything).Return([]domain.PlaceSearchResult{
		{ID: "1", Coordinates: yonseiRo},
	}, nil).Once()
	search.On("KeywordSearch", mock.Anything, "카페 홍대/합정", mock.Anything).Return([]domain.PlaceSearchResult{
		{ID: "99", PlaceURL: "https://place.map.kakao.com/42", Coordinates: eagleCafe},
	}, nil).Once()

	r := newTestResolver(search)
	res := r.Resolve(context.Background(), domain.PlaceRecord{
		ID:          "p1",
		Name:        "카페",
		Location:    "홍대 합정",
		KakaoMapURL: "https://map.kakao.com/?itemId=42",
	})

	require.True(t, res.Found())
	assert.Equal(t, eagleCafe, *res.Coordinates)
	search.AssertExpectations(t)
}

func TestChainResolver_FallsThroughInOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("url mismatch then address", func(t *testing.T) {
		search := &MockPlaceSearchRepository{}
		search.On("KeywordSearch", mock.Anything, "독수리다방", mock.Anything).
			Return([]domain.PlaceSearchResult{{ID: "1", Coordinates: yonseiRo}}, nil).Once()
		search.On("KeywordSearch", mock.Anything, "독수리다방 신촌", mock.Anything).
			Return([]domain.PlaceSearchResult{}, nil).Once()
		search.On("AddressSearch", mock.Anything, "서울 서대문구 연세로 36").
			Return([]domain.GeocodeResult{{Coordinates: eagleCafe}}, nil).Once()

		res := newTestResolver(search).Resolve(ctx, domain.PlaceRecord{
			ID:          "p1",
			Name:        "독수리다방",
			Location:    "신촌",
			Address:     "서울 서대문구 연세로 36",
			KakaoMapURL: "https://place.map.kakao.com/26338954",
		})

		require.True(t, res.Found())
		assert.Equal(t, domain.StrategyAddress, res.Strategy)
		assert.Equal(t, eagleCafe, *res.Coordinates)
		search.AssertExpectations(t)
	})

	t.Run("address error then free-text location", func(t *testing.T) {
		search := &MockPlaceSearchRepository{}
		search.On("AddressSearch", mock.Anything, "연세로 36").
			Return(nil, errors.New("connection reset")).Once()
		search.On("AddressSearch", mock.Anything, "서울 서대문구 창천동").
			Return([]domain.GeocodeResult{{Coordinates: yonseiRo}}, nil).Once()

		res := newTestResolver(search).Resolve(ctx, domain.PlaceRecord{
			ID:       "p1",
			Name:     "밥집",
			Location: "서울 서대문구 창천동",
			Address:  "연세로 36",
		})

		require.True(t, res.Found())
		assert.Equal(t, domain.StrategyLocation, res.Strategy)
		search.AssertExpectations(t)
		search.AssertNotCalled(t, "KeywordSearch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("region name is not geocoded, keyword with hint then bare name", func(t *testing.T) {
		search := &MockPlaceSearchRepository{}
		search.On("KeywordSearch", mock.Anything, "밥집 신촌", mock.Anything).
			Return(nil, errors.New("429 too many requests")).Once()
		search.On("KeywordSearch", mock.Anything, "밥집", mock.Anything).
			Return([]domain.PlaceSearchResult{{ID: "5", Coordinates: yonseiRo}, {ID: "6", Coordinates: eagleCafe}}, nil).Once()

		res := newTestResolver(search).Resolve(ctx, domain.PlaceRecord{
			ID:       "p1",
			Name:     "밥집",
			Location: "이대",
		})

		require.True(t, res.Found())
		assert.Equal(t, domain.StrategyKeyword, res.Strategy)
		assert.Equal(t, yonseiRo, *res.Coordinates)
		search.AssertExpectations(t)
		search.AssertNotCalled(t, "AddressSearch", mock.Anything, mock.Anything)
	})

	t.Run("everything fails", func(t *testing.T) {
		search := &MockPlaceSearchRepository{}
		search.On("KeywordSearch", mock.Anything, mock.Anything, mock.Anything).
			Return([]domain.PlaceSearchResult{}, nil)

		res := newTestResolver(search).Resolve(ctx, domain.PlaceRecord{ID: "p1", Name: "없는집", Location: "신촌"})

		assert.False(t, res.Found())
		assert.Equal(t, domain.StrategyNone, res.Strategy)
		search.AssertNumberOfCalls(t, "KeywordSearch", 2)
	})
}

func TestChainResolver_SanityCheckIsAdvisory(t *testing.T) {
	busan := domain.Coordinates{Lat: 35.1796, Lng: 129.0756}

	search := &MockPlaceSearchRepository{}
	search.On("AddressSearch", mock.Anything, "부산 해운대구").
		Return([]domain.GeocodeResult{{Coordinates: busan}}, nil).Once()

	res := newTestResolver(search).Resolve(context.Background(), domain.PlaceRecord{
		ID:      "p1",
		Name:    "돼지국밥",
		Address: "부산 해운대구",
	})

	require.True(t, res.Found())
	assert.True(t, res.Flagged)
	assert.Equal(t, busan, *res.Coordinates)
	assert.Greater(t, res.DistanceFromReference, 5000.0)
}

func TestChainResolver_RecordCoordinatesFlagged(t *testing.T) {
	busan := domain.Coordinates{Lat: 35.1796, Lng: 129.0756}
	search := &MockPlaceSearchRepository{}

	res := newTestResolver(search).Resolve(context.Background(),
		domain.PlaceRecord{ID: "p1", Name: "돼지국밥"}.WithCoordinates(busan))

	require.True(t, res.Found())
	assert.Equal(t, domain.StrategyRecord, res.Strategy)
	assert.True(t, res.Flagged)
	search.AssertNotCalled(t, "AddressSearch", mock.Anything, mock.Anything)
}

func TestChainResolver_Pipeline(t *testing.T) {
	search := &MockPlaceSearchRepository{}
	search.On("KeywordSearch", mock.Anything, "독수리다방", mock.Anything).Return([]domain.PlaceSearchResult{
		{ID: "26338954", Coordinates: eagleCafe},
	}, nil)
	search.On("AddressSearch", mock.Anything, "서울 서대문구 연세로 10").
		Return([]domain.GeocodeResult{{Coordinates: yonseiRo}}, nil)

	places := []domain.PlaceRecord{
		{ID: "a", Name: "독수리다방", Location: "신촌", KakaoMapURL: "https://place.map.kakao.com/26338954"},
		{ID: "b", Name: "분식집", Location: "신촌", Address: "서울 서대문구 연세로 10"},
		{ID: "c", Name: "온라인 마켓", Location: "online"},
	}

	r := newTestResolver(search)
	var found []domain.Coordinates
	var missing []string
	for _, p := range places {
		res := r.Resolve(context.Background(), p)
		if res.Found() {
			found = append(found, *res.Coordinates)
			continue
		}
		missing = append(missing, p.ID)
	}

	assert.Equal(t, []domain.Coordinates{eagleCafe, yonseiRo}, found)
	assert.Equal(t, []string{"c"}, missing)
}
