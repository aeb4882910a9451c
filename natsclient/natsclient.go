package natsclient

import (
	"net/url"

	"github.com/nats-io/nats.go"
)

const (
	// PubSubAcceptedBlock is the subject the chain controller publishes
	// accepted block states on.
	PubSubAcceptedBlock string = "accepted_block"
	// PubSubIrreversibleBlock is the subject the chain controller publishes
	// irreversible block states on.
	PubSubIrreversibleBlock string = "irreversible_block"
)

// Config contains all arguments required to connect to the nats service.
type Config struct {
	Address string `yaml:"server_address"`
	Name    string `yaml:"client_name"`
	Token   string `yaml:"token"`
}

type socket struct {
	conn *nats.Conn
}

func connect(cfg Config) (*socket, error) {
	var err error
	_, err = url.Parse(cfg.Address)
	if err != nil {
		return nil, err
	}
	var s socket
	s.conn, err = nats.Connect(cfg.Address, nats.Name(cfg.Name), nats.Token(cfg.Token))
	return &s, err
}

// Disconnect drains the message queue and disconnects from the pub/sub.
// All subscriptions are immediately put into a drain state and upon
// completion the publishers are drained and can not publish any additional
// messages.
func (s *socket) Disconnect() error {
	return s.conn.Drain()
}
