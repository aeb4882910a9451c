package natsclient

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/logger"
)

// BlockPublisher forwards received block states into the node, usually a
// reactive observable. Publish must be non-blocking.
type BlockPublisher interface {
	Publish(chain.BlockState)
}

// Subscriber provides functionality to pull block events from the pub/sub
// queue and forward them into the node.
type Subscriber struct {
	*socket
	log logger.Logger
}

// SubscriberConnect connects a subscriber to the pub/sub queue using the
// provided config.
func SubscriberConnect(cfg Config, log logger.Logger) (*Subscriber, error) {
	var s Subscriber
	var err error
	s.log = log
	s.socket, err = connect(cfg)
	return &s, err
}

// SubscribeAcceptedBlock forwards accepted block states to pub.
func (s *Subscriber) SubscribeAcceptedBlock(pub BlockPublisher) error {
	return s.subscribe(PubSubAcceptedBlock, pub)
}

// SubscribeIrreversibleBlock forwards irreversible block states to pub.
func (s *Subscriber) SubscribeIrreversibleBlock(pub BlockPublisher) error {
	return s.subscribe(PubSubIrreversibleBlock, pub)
}

func (s *Subscriber) subscribe(subject string, pub BlockPublisher) error {
	_, err := s.conn.Subscribe(subject, func(m *nats.Msg) {
		var bs chain.BlockState
		if err := json.Unmarshal(m.Data, &bs); err != nil {
			s.log.Error(fmt.Sprintf("nats subscriber, corrupted %s message: %s", subject, err))
			return
		}
		pub.Publish(bs)
	})
	return err
}
