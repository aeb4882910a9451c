package natsclient

import (
	"encoding/json"

	"github.com/huangminghuang/chainwait/chain"
)

// Publisher provides functionality to push block events to the pub/sub queue.
// It is the out-of-process chain controller's side of the block event bridge.
type Publisher struct {
	*socket
}

// PublisherConnect connects a publisher to the pub/sub queue using the
// provided config.
func PublisherConnect(cfg Config) (*Publisher, error) {
	var p Publisher
	var err error
	p.socket, err = connect(cfg)
	return &p, err
}

// PublishAcceptedBlock publishes an accepted block state.
func (p *Publisher) PublishAcceptedBlock(bs chain.BlockState) error {
	return p.publish(PubSubAcceptedBlock, bs)
}

// PublishIrreversibleBlock publishes an irreversible block state.
func (p *Publisher) PublishIrreversibleBlock(bs chain.BlockState) error {
	return p.publish(PubSubIrreversibleBlock, bs)
}

func (p *Publisher) publish(subject string, bs chain.BlockState) error {
	msg, err := json.Marshal(bs)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, msg)
}
