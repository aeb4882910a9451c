package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/configuration"
	"github.com/huangminghuang/chainwait/emulator"
	"github.com/huangminghuang/chainwait/logging"
	"github.com/huangminghuang/chainwait/logo"
	"github.com/huangminghuang/chainwait/natsclient"
	"github.com/huangminghuang/chainwait/reactive"
	"github.com/huangminghuang/chainwait/repository"
	"github.com/huangminghuang/chainwait/server"
	"github.com/huangminghuang/chainwait/stdoutwriter"
	"github.com/huangminghuang/chainwait/submission"
	"github.com/huangminghuang/chainwait/telemetry"
	"github.com/huangminghuang/chainwait/tracker"
)

const usage = `The Chainwait node tracks transactions observed on the chain and lets clients
hold a wait_transaction request open until a transaction is accepted or finalized.
Block events arrive from an in-process emulator or from a chain controller over NATS.`

const blockEventsBufferSize = 100

func main() {
	logo.Display()
	godotenv.Load()

	var file string
	configurator := func() (configuration.Configuration, error) {
		if file == "" {
			file = os.Getenv("CHAINWAIT_CONFIG")
		}
		if file == "" {
			return configuration.Configuration{}, errors.New("please specify configuration file path with -c <path to file>")
		}

		return configuration.Read(file)
	}

	app := &cli.App{
		Name:  "node",
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Load configuration from `FILE`",
				Destination: &file,
			},
		},
		Action: func(_ *cli.Context) error {
			cfg, err := configurator()
			if err != nil {
				return err
			}
			run(cfg)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func run(cfg configuration.Configuration) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		cancel()
	}()

	callbackOnErr := func(err error) {
		fmt.Println("logger error: ", err)
	}

	callbackOnFatal := func(err error) {
		panic(fmt.Sprintf("fatal error: %s", err))
	}

	writers := []io.Writer{stdoutwriter.Logger{}}
	if cfg.Database.ConnStr != "" {
		db, err := repository.Connect(ctx, cfg.Database)
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		ctxx, cancelClose := context.WithTimeout(context.Background(), time.Second)
		defer cancelClose()
		defer db.Disconnect(ctxx)
		writers = append(writers, db)
	}

	log := logging.New(callbackOnErr, callbackOnFatal, writers...)

	acceptedBlocks := reactive.New[chain.BlockState](blockEventsBufferSize)
	irreversibleBlocks := reactive.New[chain.BlockState](blockEventsBufferSize)
	trackerEvents := reactive.New[tracker.Event](blockEventsBufferSize)

	trk, err := tracker.New(cfg.Tracker, trackerEvents)
	if err != nil {
		log.Fatal(err.Error())
		return
	}
	runner := tracker.NewRunner(trk, log, acceptedBlocks.Subscribe(), irreversibleBlocks.Subscribe())

	var submitter submission.Submitter
	switch cfg.Nats.Address {
	case "":
		em := emulator.New(cfg.Emulator, acceptedBlocks, irreversibleBlocks, log)
		go em.Run(ctx)
		submitter = em
		log.Info("node, running with the in-process chain controller emulator")
	default:
		sub, err := natsclient.SubscriberConnect(cfg.Nats, log)
		if err != nil {
			log.Fatal(err.Error())
			return
		}
		defer sub.Disconnect()
		if err := sub.SubscribeAcceptedBlock(acceptedBlocks); err != nil {
			log.Fatal(err.Error())
			return
		}
		if err := sub.SubscribeIrreversibleBlock(irreversibleBlocks); err != nil {
			log.Fatal(err.Error())
			return
		}
		submitter = submission.NewHTTPForwarder(cfg.Submission)
		log.Info("node, receiving block events from the chain controller over NATS")
	}

	bridge := submission.NewBridge(submitter, runner, log)

	go runner.Run(ctx)
	go func() {
		if err := telemetry.Run(ctx, cancel, cfg.Telemetry); err != nil {
			log.Error(err.Error())
		}
	}()

	if err := server.Run(ctx, cfg.Server, bridge, runner, log, trackerEvents.Subscribe()); err != nil {
		log.Error(err.Error())
	}
}
