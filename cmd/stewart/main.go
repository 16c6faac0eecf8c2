package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/golang/glog"

	"github.com/calvinmclean/stewart/controller"
	"github.com/calvinmclean/stewart/shell"
	"github.com/calvinmclean/stewart/ui"
)

func main() {
	var interactive bool
	flag.BoolVar(&interactive, "shell", false, "Run the interactive shell instead of reading commands from stdin")
	flag.Parse()
	defer glog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error
	switch {
	case os.Getenv("ENABLE_UI") == "true":
		err = runUI(ctx)
	case interactive:
		err = runShell()
	default:
		err = runCLI(ctx)
	}
	if err != nil {
		glog.Exit(err)
	}
}

func runUI(ctx context.Context) error {
	cfg, err := controller.ConfigFromEnv()
	if err != nil {
		return err
	}

	application := app.NewWithID("com.calvinmclean.stewart")
	controlUI := ui.NewControlUI()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	configWindow := ui.NewConfigWindow(application)
	configWindow.OnSubmit = func() {
		c, err := controller.New(cfg)
		if err != nil {
			fmt.Fprintf(controlUI, "error: %v\n", err)
			glog.Errorf("error creating controller: %v", err)
			return
		}

		r, w := io.Pipe()
		go func() {
			defer c.Close()
			err := c.RunPipe(ctx, r, io.MultiWriter(os.Stdout, controlUI))
			if err != nil {
				fmt.Fprintf(controlUI, "error: %v\n", err)
				glog.Errorf("controller stopped: %v", err)
			}
		}()

		controlUI.Show(ctx, application, w)
	}
	configWindow.Show(&cfg)

	application.Run()
	return nil
}

func runShell() error {
	c, err := controller.NewFromEnv()
	if err != nil {
		return err
	}
	defer c.Close()

	shell.New(c).Run()
	return nil
}

func runCLI(ctx context.Context) error {
	c, err := controller.NewFromEnv()
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := c.Config()

	if cfg.HTTPAddr != "" {
		server := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           controller.NewAPI(c).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			glog.Infof("serving API on %s", cfg.HTTPAddr)
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorf("error serving API: %v", err)
			}
		}()
		defer server.Shutdown(context.Background())
	}

	if cfg.MQTTBroker != "" {
		bridge := controller.NewBridge(c, cfg.MQTTBroker, cfg.MQTTTopic)
		go func() {
			err := bridge.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				glog.Errorf("error running MQTT bridge: %v", err)
			}
		}()
	}

	return c.Run(ctx, os.Stdin, os.Stdout)
}
