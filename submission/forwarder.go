package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/httpclient"
)

const defaultForwardTimeout = 5 * time.Second

// Config contains configuration of the submission path when the chain
// controller runs out of process.
type Config struct {
	ControllerURL  string `yaml:"controller_url"`  // push_transaction URL of the upstream chain controller
	TimeoutSeconds int    `yaml:"timeout_seconds"` // forward timeout, 0 means 5 seconds
}

// HTTPForwarder submits transactions to an out-of-process chain controller
// over HTTP. It implements Submitter.
type HTTPForwarder struct {
	url     string
	timeout time.Duration
}

// NewHTTPForwarder creates an HTTPForwarder for the configured controller.
func NewHTTPForwarder(cfg Config) HTTPForwarder {
	timeout := defaultForwardTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return HTTPForwarder{url: cfg.ControllerURL, timeout: timeout}
}

// Submit forwards the transaction and decodes the controller's result.
func (f HTTPForwarder) Submit(_ context.Context, trx chain.Transaction) (chain.SubmitResult, error) {
	body := struct {
		Transaction chain.Transaction `json:"transaction"`
	}{Transaction: trx}

	var result chain.SubmitResult
	if err := httpclient.MakePost(f.timeout, f.url, body, &result); err != nil {
		return chain.SubmitResult{}, fmt.Errorf("forwarding transaction to the chain controller: %w", err)
	}
	return result, nil
}
