package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
)

type recordedSchedule struct {
	delays []time.Duration
	funcs  []func()
}

func (r *recordedSchedule) schedule(d time.Duration, f func()) {
	r.delays = append(r.delays, d)
	r.funcs = append(r.funcs, f)
}

func (r *recordedSchedule) fire() {
	for _, f := range r.funcs {
		f()
	}
	r.funcs = nil
}

func TestViewportController_Apply(t *testing.T) {
	sched := &recordedSchedule{}
	vc := usecase.NewViewportController(0, 0, zap.NewNop()).WithScheduler(sched.schedule)

	t.Run("bounds take precedence", func(t *testing.T) {
		m := newFakeMap("map", sinchonStation, 4)
		b := &domain.Bounds{SW: domain.Coordinates{Lat: 1, Lng: 1}, NE: domain.Coordinates{Lat: 3, Lng: 3}}

		vc.Apply(m, eagleCafe, b, "신촌")

		require.NotNil(t, m.bounds)
		assert.Equal(t, *b, *m.bounds)
		assert.Equal(t, 50, m.padding)
		assert.Equal(t, 0, m.setCenters)

		require.Len(t, sched.delays, 1)
		assert.Equal(t, 100*time.Millisecond, sched.delays[0])
		assert.Equal(t, 0, m.relayouts)
		sched.fire()
		assert.Equal(t, 1, m.relayouts)
	})

	t.Run("center keeps zoom", func(t *testing.T) {
		m := newFakeMap("map", sinchonStation, 6)

		vc.Apply(m, eagleCafe, nil, "")

		assert.Equal(t, eagleCafe, m.Center())
		assert.Equal(t, 6, m.Level())
		assert.Nil(t, m.bounds)
	})

	t.Run("online freezes viewport", func(t *testing.T) {
		m := newFakeMap("map", sinchonStation, 4)
		b := &domain.Bounds{SW: eagleCafe, NE: yonseiRo}

		vc.Apply(m, eagleCafe, b, "internet")

		assert.Equal(t, sinchonStation, m.Center())
		assert.Nil(t, m.bounds)
		assert.Equal(t, 0, m.setCenters)
	})

	t.Run("nil map", func(t *testing.T) {
		assert.NotPanics(t, func() { vc.Apply(nil, eagleCafe, nil, "") })
	})
}

func TestViewportFor(t *testing.T) {
	center, bounds := usecase.ViewportFor("홍대 / 합정", sinchonStation)
	require.NotNil(t, bounds)
	assert.Equal(t, domain.Coordinates{Lat: 37.5543, Lng: 126.9220}, center)
	assert.Equal(t, 37.5470, bounds.SW.Lat)
	assert.Equal(t, 126.9300, bounds.NE.Lng)

	center, bounds = usecase.ViewportFor("", sinchonStation)
	assert.Nil(t, bounds)
	assert.Equal(t, sinchonStation, center)

	_, bounds = usecase.ViewportFor("online", sinchonStation)
	assert.Nil(t, bounds)
}
