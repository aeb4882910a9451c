package submission

import (
	"context"
	"fmt"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/logger"
)

// Submitter is the chain layer's asynchronous transaction submission path.
// Submit returns once the chain controller has accepted the transaction for
// processing; the result carries the transaction id and its protocol level
// expiration.
type Submitter interface {
	Submit(ctx context.Context, trx chain.Transaction) (chain.SubmitResult, error)
}

// Registrar admits transaction ids for tracking. The tracker Runner
// implements it.
type Registrar interface {
	Add(id chain.TransactionID)
}

// Bridge couples transaction submission with the tracker: a successfully
// submitted transaction is registered so a later wait request can match it.
// A failed submission is forwarded untouched and the tracker is not touched.
type Bridge struct {
	submitter Submitter
	registrar Registrar
	log       logger.Logger
}

// NewBridge creates a Bridge.
func NewBridge(submitter Submitter, registrar Registrar, log logger.Logger) Bridge {
	return Bridge{submitter: submitter, registrar: registrar, log: log}
}

// Submit pushes the transaction through the chain layer and registers the
// returned id with the tracker.
func (b Bridge) Submit(ctx context.Context, trx chain.Transaction) (chain.SubmitResult, error) {
	result, err := b.submitter.Submit(ctx, trx)
	if err != nil {
		return chain.SubmitResult{}, err
	}

	b.registrar.Add(result.TransactionID)
	b.log.Debug(fmt.Sprintf("submission bridge, tracking transaction [ %s ]", result.TransactionID))

	return result, nil
}
