package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/logger"
	"github.com/huangminghuang/chainwait/tracker"
)

const (
	ApiVersion = "2.0.0"
	Header     = "Chainwait-Node"
)

const (
	chainGroupURL      = "/v2/chain"
	pushTransactionURL = "/push_transaction"
	sendTransactionURL = "/send_transaction"
	waitTransactionURL = "/wait_transaction"
)

const (
	AliveURL           = "/alive"                             // URL to check if the server is alive and its version.
	PushTransactionURL = chainGroupURL + pushTransactionURL   // URL to push a transaction to the chain layer.
	SendTransactionURL = chainGroupURL + sendTransactionURL   // URL to send a transaction to the chain layer.
	WaitTransactionURL = chainGroupURL + waitTransactionURL   // URL to wait until a transaction is accepted or finalized.
	WsURL              = "/ws"                                // URL to subscribe to the live tracked transaction feed.
)

var ErrWrongPortSpecified = errors.New("port must be between 1 and 65535")

// TransactionSubmitter pushes a transaction through the chain layer. The
// submission Bridge implements it.
type TransactionSubmitter interface {
	Submit(ctx context.Context, trx chain.Transaction) (chain.SubmitResult, error)
}

// WaitDispatcher hands a wait request over to the serialized tracker context.
// The callback receives exactly one terminal response.
type WaitDispatcher interface {
	HandleWaitTransaction(id chain.TransactionID, condition string, timeout uint32, cb tracker.Callback)
}

// TrackerEventSubscriberProvider provides a reactive subscription to tracked
// transaction status changes feeding the websocket hub.
type TrackerEventSubscriberProvider interface {
	Cancel()
	Channel() <-chan tracker.Event
}

// Config contains configuration of the server.
type Config struct {
	Port int `yaml:"port"` // Port to listen on.
}

type server struct {
	submitter  TransactionSubmitter
	dispatcher WaitDispatcher
	hub        *hub
	log        logger.Logger
	rx         TrackerEventSubscriberProvider
}

// Run initializes routing and runs the server. To stop the server cancel the
// context. It blocks until the context is canceled.
func Run(
	ctx context.Context, c Config, submitter TransactionSubmitter,
	dispatcher WaitDispatcher, log logger.Logger, rx TrackerEventSubscriberProvider,
) error {
	var err error
	ctxx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := validateConfig(&c); err != nil {
		return err
	}

	s := &server{
		submitter:  submitter,
		dispatcher: dispatcher,
		hub:        newHub(log),
		log:        log,
		rx:         rx,
	}

	router := s.routes()

	go func() {
		err = router.Listen(fmt.Sprintf("0.0.0.0:%v", c.Port))
		if err != nil {
			cancel()
		}
	}()
	go s.hub.run(ctxx)
	go s.runSubscriber(ctxx)

	<-ctxx.Done()

	if errx := router.Shutdown(); errx != nil {
		err = errors.Join(err, errx)
	}

	return err
}

func (s *server) routes() *fiber.App {
	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   time.Second * 5,
		ServerHeader:  Header,
		AppName:       ApiVersion,
		Concurrency:   4096,
	})
	router.Use(recover.New())

	router.Get(AliveURL, s.alive)

	chainGroup := router.Group(chainGroupURL)
	chainGroup.Post(pushTransactionURL, s.pushTransaction)
	chainGroup.Post(sendTransactionURL, s.sendTransaction)
	chainGroup.Post(waitTransactionURL, s.waitTransaction)

	router.Get(WsURL, websocket.New(s.hub.serve))

	return router
}

func validateConfig(c *Config) error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrWrongPortSpecified
	}
	return nil
}

func (s *server) runSubscriber(ctx context.Context) {
	defer s.rx.Cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.rx.Channel():
			s.hub.broadcast(ev)
		}
	}
}
