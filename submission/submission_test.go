package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangminghuang/chainwait/chain"
)

type testLogger struct{}

func (testLogger) Debug(string) {}
func (testLogger) Info(string)  {}
func (testLogger) Warn(string)  {}
func (testLogger) Error(string) {}
func (testLogger) Fatal(string) {}

type stubSubmitter struct {
	result chain.SubmitResult
	err    error
}

func (s stubSubmitter) Submit(context.Context, chain.Transaction) (chain.SubmitResult, error) {
	return s.result, s.err
}

type recordingRegistrar struct {
	added []chain.TransactionID
}

func (r *recordingRegistrar) Add(id chain.TransactionID) {
	r.added = append(r.added, id)
}

func TestBridgeRegistersOnSuccess(t *testing.T) {
	trx := chain.Transaction{Payload: []byte("trx100")}
	registrar := &recordingRegistrar{}
	bridge := NewBridge(stubSubmitter{result: chain.SubmitResult{TransactionID: trx.ID(), Expiration: 1240}}, registrar, testLogger{})

	result, err := bridge.Submit(context.Background(), trx)
	assert.Nil(t, err)
	assert.Equal(t, trx.ID(), result.TransactionID)
	assert.Equal(t, []chain.TransactionID{trx.ID()}, registrar.added)
}

func TestBridgeLeavesTrackerAloneOnFailure(t *testing.T) {
	registrar := &recordingRegistrar{}
	bridge := NewBridge(stubSubmitter{err: errors.New("expired transaction")}, registrar, testLogger{})

	_, err := bridge.Submit(context.Background(), chain.Transaction{})
	assert.NotNil(t, err)
	assert.Empty(t, registrar.added)
}
