/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lecturehub/apiserver/config"
	"github.com/lecturehub/apiserver/internal/logging"
	"github.com/lecturehub/apiserver/internal/mq"
	"github.com/lecturehub/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// eventsCmd groups lecture event tooling.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect lecture events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log lecture events from the configured broker until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer broker.Close()
		if !broker.Enabled() {
			return fmt.Errorf("set MQ_BACKEND to %s or %s to tail events", config.MQRabbitMQ, config.MQPubSub)
		}

		log.WithField("topic", cfg.MQ.LectureTopic).Info("tailing lecture events")
		err = mq.NewLecturePublisher(broker, cfg.MQ.LectureTopic).ConsumeLectureEvents(ctx, func(_ context.Context, event types.LectureEvent) error {
			log.WithFields(logrus.Fields{
				"type":       event.Type,
				"lecture_id": event.LectureID,
				"actor_id":   event.ActorID,
				"video_url":  event.VideoURL,
				"at":         event.At,
			}).Info("lecture event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
