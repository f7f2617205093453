package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventcal/internal/bot"
	"eventcal/internal/calendar"
	"eventcal/internal/config"
	"eventcal/internal/discord"
	"eventcal/internal/eventlog"
	appLog "eventcal/internal/log"
	"eventcal/internal/schedule"
	"eventcal/internal/tracker"
	"eventcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	appLog.Info("eventcal starting", "version", "0.1.0")

	flags := parseFlags()

	if err := run(flags); err != nil {
		appLog.Error("eventcal exiting with error", err)
		os.Exit(1)
	}
	appLog.Info("eventcal exiting")
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return err
	}
	conf.ApplyEnv(os.Getenv)

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	if err := conf.Validate(); err != nil {
		return err
	}
	if conf.BotToken == "" {
		return errors.New("BOT_TOKEN is not set")
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"channel_id", conf.ChannelID,
		"event_log_path", conf.EventLogPath,
		"message_ref_path", conf.MessageRefPath,
		"refresh", conf.RefreshCron,
		"listen", conf.Listen,
		"once", flags.once,
	)

	loc, err := conf.Location()
	if err != nil {
		return err
	}
	highlight, err := calendar.ParseHexColor(conf.HighlightColor)
	if err != nil {
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := discord.New(discord.Options{
		Token:         conf.BotToken,
		ApplicationID: conf.ApplicationID,
		GuildID:       conf.GuildID,
		Presence:      conf.Presence,
	})
	if err != nil {
		return err
	}

	syncer, err := tracker.New(tracker.Config{
		ChannelID: conf.ChannelID,
		RefPath:   conf.MessageRefPath,
	}, client)
	if err != nil {
		return err
	}

	svc := bot.NewService(
		eventlog.NewStore(conf.EventLogPath),
		calendar.NewRenderer(loc, highlight),
		syncer,
	)

	if err := client.Open(ctx, svc); err != nil {
		return err
	}
	defer client.Close()

	// Ensure the tracked message exists and shows the current month.
	if err := svc.SyncTracked(ctx); err != nil {
		appLog.Error("error ensuring calendar message", err, "channel_id", conf.ChannelID)
	}

	if flags.once {
		return nil
	}

	if conf.RefreshEnabled() {
		runner, err := schedule.New(conf.RefreshCron, loc, time.Minute, svc.SyncTracked)
		if err != nil {
			return err
		}
		runner.Start(ctx)
	}

	if conf.Listen != "" {
		srv := web.NewServer(conf, svc)
		go func() {
			if err := srv.Run(ctx); err != nil {
				appLog.Error("HTTP server stopped", err, "listen", conf.Listen)
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("signal received, shutting down")
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Sync the tracked calendar message once and exit")

	flag.Parse()

	return cfg
}
