package app

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"

	"edgemux/pkg/app/config"
	"edgemux/pkg/dispatch"
	"edgemux/pkg/mqtt"
	"edgemux/pkg/mux"
	"edgemux/pkg/raspberry"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
	"golang.org/x/sync/errgroup"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL
	// listener is the bound socket of the web server, nil without web server
	listener net.Listener

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// chip is the gpio backend all lines are requested from
	chip raspberry.Chip
	// lines are the configured pairings in tie-break order
	lines []pairedLine

	// loop is the dispatch loop over all pairings
	loop *dispatch.Loop
	// state holds the last events for the web services
	state *LineState

	// cancel stops the goroutines started by Run
	cancel context.CancelFunc
	// err is the first error of the goroutines started by Run
	err error
	// shutdown signals application shutdown
	shutdown  chan struct{}
	closeOnce sync.Once
}

// pairedLine is a pairing together with its requested lines.
type pairedLine struct {
	config  config.PairingConfig
	pairing *mux.Pairing
	input   raspberry.Input
	output  raspberry.Output
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt:  mqtt.New(config.MQTT.Buffer),
		state: NewLineState(config.History),

		shutdown: make(chan struct{}),
	}, err
}

// Run requests all lines and starts the application.
// A line which can't be requested is a fatal configuration error.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	if app.urlParsed.Host != "" {
		ln, err := net.Listen("tcp", app.urlParsed.Host)
		if err != nil {
			debug.ErrorLog.Printf("can't listen on %s: %v", app.urlParsed.Host, err)
			return err
		}
		app.listener = ln
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	g, ctx := errgroup.WithContext(ctx)

	go app.mqtt.Service()

	g.Go(func() error {
		if err := app.loop.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if app.listener != nil {
		g.Go(func() error {
			return app.runWebServer(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			// closing the listener also stops a server that isn't serving yet
			err := app.web.Shutdown()
			_ = app.listener.Close()
			return err
		})
	}

	if sim, ok := app.chip.(*raspberry.SimChip); ok && app.config.Emulation.Interval > 0 {
		g.Go(func() error {
			app.emulate(ctx, sim)
			return nil
		})
	}

	go func() {
		app.err = g.Wait()
		close(app.shutdown)
	}()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.chip, err = raspberry.Open(app.config.Backend, app.config.Chip); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	app.lines = make([]pairedLine, 0, len(app.config.Pairings))
	participants := make([]mux.Participant, 0, len(app.config.Pairings))
	for _, c := range app.config.Pairings {
		l := pairedLine{config: c}

		if l.input, err = app.chip.Input(c.Input, c.Name, c.Pull); err != nil {
			debug.ErrorLog.Printf("can't open input of %s: %v", c.Name, err)
			return err
		}
		app.lines = append(app.lines, l)
		last := &app.lines[len(app.lines)-1]

		if last.output, err = app.chip.Output(c.Output, c.Name, c.Initial); err != nil {
			debug.ErrorLog.Printf("can't open output of %s: %v", c.Name, err)
			return err
		}

		var w *mux.Watcher
		if w, err = mux.NewWatcher(c.Name, last.input); err != nil {
			debug.ErrorLog.Printf("can't watch %s: %v", c.Name, err)
			return err
		}

		last.pairing = mux.NewPairing(w, mux.NewDriver(c.Name, last.output))
		participants = append(participants, last.pairing)
		debug.InfoLog.Printf("paired %s: input %v (pull %v) -> output %v (initial %v)", c.Name, c.Input, c.Pull, c.Output, c.Initial)
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	reporters := []dispatch.Reporter{
		dispatch.LogReporter{},
		app.state,
		mqtt.NewReporter(app.mqtt, app.config.MQTT.Topic),
	}
	if len(app.lines) == 1 {
		app.loop = dispatch.NewSingle(app.lines[0].pairing, reporters...)
	} else {
		app.loop = dispatch.New(mux.NewSelector(participants...), reporters...)
	}

	// initDefaultRoutes should be always called last because it may access things like app.lines
	// which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/edgemux.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Err returns the error the application stopped with.
// It is only valid after Shutdown is closed.
func (app *App) Err() error {
	return app.err
}

// Close stops all goroutines and releases the lines.
func (app *App) Close() error {
	app.closeOnce.Do(func() {
		if app.cancel != nil {
			app.cancel()
			<-app.shutdown
		}

		if app.mqtt != nil {
			_ = app.mqtt.Disconnect()
		}

		for _, l := range app.lines {
			if l.input != nil {
				_ = l.input.Close()
			}
			if l.output != nil {
				_ = l.output.Close()
			}
		}

		if app.chip != nil {
			_ = app.chip.Close()
		}
	})
	return nil
}
