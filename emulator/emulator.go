package emulator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/logger"
)

const (
	slotsPerSecond = 2

	defaultBlockIntervalSeconds = 1
	defaultIrreversibleLag      = 3
	defaultTrxExpirySeconds     = 120
)

// BlockEventPublisher receives the block states the emulator produces,
// usually a reactive observable. Publish must be non-blocking.
type BlockEventPublisher interface {
	Publish(chain.BlockState)
}

// Config contains configuration of the chain controller emulator.
type Config struct {
	BlockIntervalSeconds int    `yaml:"block_interval_seconds"` // seconds between produced blocks
	IrreversibleLag      int    `yaml:"irreversible_lag"`       // produced blocks kept reversible before finalizing
	StartBlockNum        uint32 `yaml:"start_block_num"`        // block number preceding the first produced block
	StartSlot            uint32 `yaml:"start_slot"`             // slot preceding the first produced block by one interval
}

// Emulator stands in for the chain controller when the node runs without one.
// It accepts submitted transactions, packs them into blocks on a fixed
// interval and finalizes blocks a configurable number of blocks behind the
// head. It implements the submission Submitter.
type Emulator struct {
	cfg          Config
	accepted     BlockEventPublisher
	irreversible BlockEventPublisher
	log          logger.Logger

	mux      sync.Mutex
	pending  []chain.Receipt
	queue    []chain.BlockState
	blockNum uint32
	slot     chain.Slot
}

// New creates an Emulator publishing produced blocks to the given publishers.
func New(cfg Config, accepted, irreversible BlockEventPublisher, log logger.Logger) *Emulator {
	if cfg.BlockIntervalSeconds == 0 {
		cfg.BlockIntervalSeconds = defaultBlockIntervalSeconds
	}
	if cfg.IrreversibleLag == 0 {
		cfg.IrreversibleLag = defaultIrreversibleLag
	}
	return &Emulator{
		cfg:          cfg,
		accepted:     accepted,
		irreversible: irreversible,
		log:          log,
		blockNum:     cfg.StartBlockNum,
		slot:         chain.Slot(cfg.StartSlot),
	}
}

// Submit accepts a transaction for inclusion in the next produced block.
func (e *Emulator) Submit(_ context.Context, trx chain.Transaction) (chain.SubmitResult, error) {
	e.mux.Lock()
	defer e.mux.Unlock()

	if trx.Expiration == 0 {
		trx.Expiration = e.slot + defaultTrxExpirySeconds*slotsPerSecond
	}
	receipt := chain.PackedReceipt(trx)
	e.pending = append(e.pending, receipt)

	return chain.SubmitResult{TransactionID: receipt.ID, Expiration: trx.Expiration}, nil
}

// Run produces blocks until the context is cancelled. It blocks.
func (e *Emulator) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.BlockIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.produceBlock()
		}
	}
}

func (e *Emulator) produceBlock() {
	e.mux.Lock()
	e.blockNum++
	e.slot += chain.Slot(e.cfg.BlockIntervalSeconds) * slotsPerSecond
	blk := &chain.Block{
		BlockNum:     e.blockNum,
		Header:       chain.Header{Timestamp: chain.Timestamp{Slot: e.slot}},
		Transactions: e.pending,
	}
	e.pending = nil
	bs := chain.BlockState{Block: blk}
	e.queue = append(e.queue, bs)

	var finalized chain.BlockState
	finalize := len(e.queue) > e.cfg.IrreversibleLag
	if finalize {
		finalized = e.queue[0]
		e.queue = e.queue[1:]
	}
	e.mux.Unlock()

	e.accepted.Publish(bs)
	e.log.Debug(fmt.Sprintf("emulator, produced block [ %d ] at slot [ %d ] with %d transactions",
		blk.BlockNum, blk.Header.Timestamp.Slot, len(blk.Transactions)))

	if finalize {
		e.irreversible.Publish(finalized)
	}
}
