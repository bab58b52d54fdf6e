package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lakekit/lakekit/gologger"
	"github.com/lakekit/lakekit/http_server"
	"github.com/lakekit/lakekit/iceberg"
	"github.com/lakekit/lakekit/objectstore"
	"github.com/lakekit/lakekit/utils"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting lakekit gateway")

	var client *iceberg.Client
	err := utils.Retry(context.Background(), 5, func(ctx context.Context) error {
		var err error
		client, err = iceberg.New(iceberg.Config{
			Host:    utils.TRINO_HOST,
			Port:    utils.TRINO_PORT,
			User:    utils.TRINO_USER,
			Catalog: utils.TRINO_CATALOG,
			Schema:  utils.TRINO_SCHEMA,
		})
		return err
	})
	if err != nil {
		logger.Error().Err(err).Msg("error connecting to engine")
		os.Exit(1)
	}

	var archive objectstore.ObjectStore
	if os.Getenv("ARCHIVE_INSERTS") == "1" {
		if utils.S3_BUCKET_NAME != "" {
			archive, err = objectstore.NewS3Store(utils.S3_BUCKET_NAME)
		} else {
			archive, err = objectstore.NewDiskStore(utils.OBJECT_STORE_PATH)
		}
		if err != nil {
			logger.Error().Err(err).Msg("error creating insert archive store")
			os.Exit(1)
		}
	}

	httpServer := http_server.StartHTTPServer(client, archive)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For load balancers needing some time to de-register the pod
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}

	if err := client.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close engine session")
	}
}
