package eventbus

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type tenantCreated struct {
	Name string
}

type moduleGranted struct {
	Code string
}

func newTestBus() EventBus {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewEventPublisher(logger)
}

func TestPublishDispatchesByArgumentType(t *testing.T) {
	bus := newTestBus()

	var got []string
	bus.Subscribe(func(e tenantCreated) {
		got = append(got, e.Name)
	})
	bus.Subscribe(func(e moduleGranted) {
		got = append(got, e.Code)
	})

	bus.Publish(tenantCreated{Name: "acme"})
	bus.Publish(moduleGranted{Code: "sales"})

	require.Equal(t, []string{"acme", "sales"}, got)
}

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := newTestBus()

	delivered := 0
	bus.Subscribe(func(e tenantCreated) {
		panic("handler bug")
	})
	bus.Subscribe(func(e tenantCreated) {
		delivered++
	})

	bus.Publish(tenantCreated{Name: "acme"})
	require.Equal(t, 1, delivered)
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	bus := newTestBus()

	delivered := 0
	handler := func(e tenantCreated) { delivered++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())

	bus.Publish(tenantCreated{Name: "acme"})
	require.Equal(t, 0, delivered)
}

func TestMatchSignature(t *testing.T) {
	require.True(t, MatchSignature(func(e tenantCreated) {}, []interface{}{tenantCreated{}}))
	require.False(t, MatchSignature(func(e tenantCreated) {}, []interface{}{moduleGranted{}}))
	require.False(t, MatchSignature(func(a, b tenantCreated) {}, []interface{}{tenantCreated{}}))
	require.False(t, MatchSignature("not a func", []interface{}{tenantCreated{}}))
}
