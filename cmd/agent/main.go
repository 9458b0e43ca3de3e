// Command agent runs Suhoor and Iftar reminders on a device.
//
// Usage:
//
//	agent run [--mode auto|background|foreground]
//	agent settings --enabled --locale en
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Nixie-Tech-LLC/ramadan/internal/agent"
	"github.com/Nixie-Tech-LLC/ramadan/internal/capability"
	"github.com/Nixie-Tech-LLC/ramadan/internal/config"
	"github.com/Nixie-Tech-LLC/ramadan/internal/foreground"
	"github.com/Nixie-Tech-LLC/ramadan/internal/logging"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/mqtt"
)

func main() {
	root := &cobra.Command{
		Use:          "agent",
		Short:        "Ramadan 2026 Doha device reminder agent",
		SilenceUsage: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(settingsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Agent, zerolog.Logger, error) {
	cfg, err := config.LoadAgent()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	return cfg, logger, nil
}

// chooseChannel honours an explicit mode and otherwise asks the capability query.
func chooseChannel(cfg *config.Agent) capability.Channel {
	if ch, ok := capability.Parse(cfg.Mode); ok {
		return ch
	}
	return capability.Select(capability.Detect(cfg.UserAgent, cfg.Standalone))
}

// deviceScheduler is a reminder channel that also takes device messages.
type deviceScheduler interface {
	Run(ctx context.Context) error
	HandleMessage(ctx context.Context, raw []byte) error
}

// subscribe routes the client's control topic and the server broadcast topic
// into the scheduler.
func subscribe(ctx context.Context, client *mqtt.Client, clientID string, sched deviceScheduler) error {
	handle := func(topic string, payload []byte) {
		if err := sched.HandleMessage(ctx, payload); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("device message rejected")
		}
	}
	if err := client.Subscribe(mqtt.ControlTopic(clientID), handle); err != nil {
		return err
	}
	return client.Subscribe(mqtt.BroadcastTopic, handle)
}

func runCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reminder scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Mode = mode
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			prefs := agent.NewPreferenceFile(cfg.DataDir)
			timings := agent.NewTimingsClient(cfg.ServerURL, nil, nil)

			var (
				notifier agent.Notifier = agent.LogNotifier{Log: logger}
				client   *mqtt.Client
			)
			if cfg.MQTTBrokerURL != "" {
				client, err = mqtt.Connect(cfg.MQTTBrokerURL, "ramadan-agent-"+cfg.ClientID)
				if err != nil {
					return err
				}
				defer client.Close()
				notifier = agent.NewMQTTNotifier(client, cfg.ClientID)
			}

			channel := chooseChannel(cfg)
			log.Info().Str("client", cfg.ClientID).Str("channel", string(channel)).Msg("agent starting")

			var sched deviceScheduler
			switch channel {
			case capability.Foreground:
				sched = foreground.NewScheduler(timings, prefs, notifier, foreground.Options{}, logger)
			default:
				sched = agent.NewScheduler(prefs, timings, notifier, agent.Options{}, logger)
			}
			if client != nil {
				if err := subscribe(ctx, client, cfg.ClientID, sched); err != nil {
					return err
				}
			}
			err = sched.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "auto, background or foreground (overrides AGENT_MODE)")
	return cmd
}

func settingsCmd() *cobra.Command {
	var (
		enabled bool
		locale  string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Store the notification preference in the data dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			prefs := agent.NewPreferenceFile(cfg.DataDir)
			pref := model.Preference{Enabled: enabled, Locale: model.ParseLocale(locale)}
			if err := prefs.Save(pref); err != nil {
				return err
			}
			log.Info().Str("path", prefs.Path()).Bool("enabled", pref.Enabled).Str("locale", string(pref.Locale)).Msg("preferences saved")
			return nil
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", false, "Enable reminders")
	cmd.Flags().StringVar(&locale, "locale", "tr", "Notification language: tr or en")
	return cmd
}
