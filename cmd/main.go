package main

import "github.com/WAzaizeh/ChainFlow/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()

	app.InitBroadcaster()
	defer app.CloseBroadcaster()

	app.MustListenAndServeHTTP()
}
