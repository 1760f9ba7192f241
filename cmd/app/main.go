package main

import (
	streamService "NosePointer/internal/api/stream/service"
	"NosePointer/internal/config"
	"NosePointer/internal/entity"
	"NosePointer/pkg/broadcast"
	"NosePointer/pkg/camera/gocvcam"
	"NosePointer/pkg/log"
	"NosePointer/pkg/redis"
	"NosePointer/pkg/utils"
	websocketPkg "NosePointer/pkg/websocket"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const pipelineStopTimeout = 5 * time.Second

var rootCmd = &cobra.Command{
	Use:   "nosepointer",
	Short: "Stream an annotated camera feed with nose direction events",
	Long: `NosePointer captures frames from a local camera, tracks the nose landmark
through a landmark detection service, classifies where it points and pushes
annotated JPEG frames plus direction events to every connected websocket viewer.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.Flags().String("host", "", "Address to bind (overrides APP_HOST)")
	rootCmd.Flags().Int("port", 0, "Port to listen on (overrides APP_PORT)")
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := log.NewLogger()
	validator := config.NewValidator()

	appConfig, err := config.LoadAppConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		appConfig.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		appConfig.Port, _ = cmd.Flags().GetInt("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := broadcast.NewHub(logger, appConfig.SubscriberBuffer)

	var publisher broadcast.Publisher = hub
	var redisClient redis.IRedis
	var mirror *redis.EventMirror
	if appConfig.RedisEnabled() {
		kinds := []entity.EventKind{entity.EventDirection}
		if appConfig.RedisMirrorFrames {
			kinds = append(kinds, entity.EventFrame)
		}
		redisClient = redis.New(appConfig.RedisOptions(), logger)
		mirror = redis.NewEventMirror(redisClient, appConfig.RedisChannel, logger, kinds...)
		publisher = broadcast.Tee(hub, mirror)
	}

	detectorOptions := appConfig.DetectorOptions()
	detectors := func() websocketPkg.ILandmarkDetector {
		return websocketPkg.NewLandmarkClient(detectorOptions, logger)
	}

	streamServices := streamService.NewStreamService(
		ctx,
		logger,
		gocvcam.NewOpener(appConfig.CameraOptions(), logger),
		detectors,
		utils.NewWithJPEGQuality(appConfig.JPEGQuality),
		publisher,
		appConfig.StreamOptions(),
	)

	server, err := config.NewServer(
		config.WithFiber(config.NewFiber(logger)),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithAppConfig(appConfig),
		config.WithHub(hub),
		config.WithStreamService(streamServices),
		config.WithRedisMirror(redisClient, mirror),
		config.WithMiddleware(),
	)
	if err != nil {
		return err
	}

	server.RegisterHandler()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	logger.Infof("Server started on %s", appConfig.Address())

	select {
	case err = <-serverErr:
		stop()
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	if shutdownErr := server.Shutdown(); shutdownErr != nil {
		logger.Warnf("Error during shutdown: %v", shutdownErr)
	}

	select {
	case <-streamServices.Done():
		logger.Info("Capture pipeline stopped")
	case <-time.After(pipelineStopTimeout):
		logger.Warn("Capture pipeline did not stop in time, camera may not have been released")
	}

	return err
}
