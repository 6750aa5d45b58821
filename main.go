package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/matt-g-everett/ledkey/api"
	"github.com/matt-g-everett/ledkey/logs"
	"github.com/matt-g-everett/ledkey/stream"
	"github.com/matt-g-everett/ledkey/timeline"
)

type app struct {
	Config     stream.Config
	Log        *slog.Logger
	Client     mqtt.Client
	Streamer   *stream.Streamer
	Controller *stream.Controller
	Api        *api.Server
}

func newApp(config stream.Config, log *slog.Logger) *app {
	a := new(app)
	a.Config = config
	a.Log = log
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.Log.Info("connected", "broker", a.Config.Mqtt.URL)
	err := stream.SubscribeCommands(client, a.Config.Mqtt.Topics.Control, a.Controller, a.Log)
	if err != nil {
		a.Log.Error("subscribe commands", "error", err)
	}
}

func (a *app) setup() error {
	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID("ledkey-" + uuid.New().String()).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	renderer, err := stream.NewRenderer(a.Config.Led)
	if err != nil {
		return err
	}
	a.Streamer = stream.NewStreamer(a.Config.Mqtt, a.Client, renderer, a.Log.With("component", "streamer"))

	views := stream.Views{a.Streamer}
	store := timeline.NewStore(a.Config.Keyframes...)
	a.Controller = stream.NewController(a.Config.Playback, store, &views, a.Log.With("component", "controller"))
	// The api server sends commands to the controller, so it joins the views
	// once the controller exists
	a.Api = api.NewServer(a.Config.Http, a.Controller, a.Log.With("component", "api"))
	views = append(views, a.Api)

	return nil
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", a.Config.Mqtt.URL, token.Error())
	}
	defer a.Client.Disconnect(250)

	go a.Streamer.Run(ctx)
	a.Controller.Refresh()

	errs := make(chan error, 1)
	go func() {
		errs <- a.Api.Serve(ctx)
	}()

	a.Controller.Run(ctx)
	return <-errs
}

func main() {
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	flag.Parse()

	config, err := stream.ReadConfigFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, closer, err := logs.New(os.Stderr, config.Log.Level, config.Log.File)
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()
	logger.Info("config loaded", "path", *configPath, "maxFrame", config.Playback.MaxFrame,
		"tickPeriod", config.Playback.TickPeriod, "keyframes", len(config.Keyframes))

	a := newApp(config, logger)
	if err := a.setup(); err != nil {
		logger.Error("setup", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		logger.Error("run", "error", err)
		os.Exit(1)
	}
}
