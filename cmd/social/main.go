package main

import (
	"context"
	"fmt"
	"os"

	authcleanup "github.com/AlibekovAA/social-stream/backend/internal/auth/cleanup"
	"github.com/AlibekovAA/social-stream/backend/internal/common/bootstrap"
	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	srv "github.com/AlibekovAA/social-stream/backend/internal/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.NewSocialApp(ctx)
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to start social service: %v\n", err))
		os.Exit(1)
	}
	defer app.Close()

	go authcleanup.StartRefreshTokenCleanup(ctx, app.Repos.RefreshTokens, constants.TokenCleanupInterval, app.Log)
	go authcleanup.StartRevokedTokenCleanup(ctx, app.Repos.RevokedTokens, constants.TokenCleanupInterval, app.Log)

	serverConfig := srv.DefaultServerConfig(app.Config.HTTPPort)
	server := srv.NewServer(serverConfig, app.Handler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			app.Log.Infof("social service: stopping cleanup goroutines")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, app.Log, "social", shutdownHooks)
}
