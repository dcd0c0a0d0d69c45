package app

import (
	"github.com/WAzaizeh/ChainFlow/internal/broadcast"
	"github.com/WAzaizeh/ChainFlow/internal/config"
	"github.com/WAzaizeh/ChainFlow/internal/render"
)

var (
	globalBroadcaster *broadcast.Broadcaster
	globalFragments   *render.Fragments
)

// InitBroadcaster constructs the process-wide fan-out once, during
// bootstrap. It is injected into the handlers, not reached for as a
// package global elsewhere.
func InitBroadcaster() {
	globalFragments = render.NewFragments()
	globalBroadcaster = broadcast.New(
		globalLogger,
		globalFragments,
		config.Global().Broadcast.SubscriberBuffer,
	)
	globalLogger.Info().
		Int("subscriber_buffer", config.Global().Broadcast.SubscriberBuffer).
		Msg("initialized broadcaster")
}

func CloseBroadcaster() {
	globalBroadcaster.Close()
	globalLogger.Info().Msg("closed broadcaster")
}
