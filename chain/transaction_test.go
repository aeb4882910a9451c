package chain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionIDHexRoundTrip(t *testing.T) {
	trx := Transaction{Expiration: 1240, RefBlockNum: 11, RefBlockPrefix: 22, Payload: []byte("payload")}
	id := trx.ID()

	parsed, err := ParseTransactionID(id.String())
	assert.Nil(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseTransactionIDRejectsMalformed(t *testing.T) {
	_, err := ParseTransactionID("short")
	assert.ErrorIs(t, err, ErrInvalidTransactionID)

	_, err = ParseTransactionID(strings.Repeat("z", 64))
	assert.ErrorIs(t, err, ErrInvalidTransactionID)
}

func TestTransactionIDIsZero(t *testing.T) {
	var id TransactionID
	assert.True(t, id.IsZero())

	trx := Transaction{Payload: []byte("x")}
	assert.False(t, trx.ID().IsZero())
}

func TestTransactionIDJSON(t *testing.T) {
	trx := Transaction{Payload: []byte("x")}
	id := trx.ID()

	raw, err := json.Marshal(id)
	assert.Nil(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(raw))

	var back TransactionID
	assert.Nil(t, json.Unmarshal(raw, &back))
	assert.Equal(t, id, back)
}

func TestTransactionIDDependsOnContent(t *testing.T) {
	a := Transaction{Payload: []byte("a")}
	b := Transaction{Payload: []byte("b")}
	assert.NotEqual(t, a.ID(), b.ID())

	c := Transaction{Payload: []byte("a"), Expiration: 1}
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestPackedReceipt(t *testing.T) {
	trx := Transaction{RefBlockNum: 11, RefBlockPrefix: 22, Payload: []byte("trx100")}
	receipt := PackedReceipt(trx)

	assert.True(t, receipt.IsPacked())
	assert.Equal(t, trx.ID(), receipt.ID)
	assert.Equal(t, trx, receipt.Packed.Transaction())

	bare := Receipt{ID: trx.ID()}
	assert.False(t, bare.IsPacked())
}

func TestBlockStateAccessors(t *testing.T) {
	bs := BlockState{Block: &Block{
		BlockNum: 601,
		Header:   Header{Timestamp: Timestamp{Slot: 1101}},
	}}
	assert.Equal(t, uint32(601), bs.BlockNum())
	assert.Equal(t, Slot(1101), bs.Slot())
}

func TestBlockStateJSONRoundTrip(t *testing.T) {
	trx := Transaction{RefBlockNum: 11, RefBlockPrefix: 22, Payload: []byte("trx100")}
	bs := BlockState{Block: &Block{
		BlockNum:     601,
		Header:       Header{Timestamp: Timestamp{Slot: 1101}},
		Transactions: []Receipt{PackedReceipt(trx), {ID: trx.ID()}},
	}}

	raw, err := json.Marshal(bs)
	assert.Nil(t, err)

	var back BlockState
	assert.Nil(t, json.Unmarshal(raw, &back))
	assert.Equal(t, bs.BlockNum(), back.BlockNum())
	assert.Equal(t, bs.Slot(), back.Slot())
	assert.Len(t, back.Block.Transactions, 2)
	assert.True(t, back.Block.Transactions[0].IsPacked())
	assert.False(t, back.Block.Transactions[1].IsPacked())
	unpacked := back.Block.Transactions[0].Packed.Transaction()
	assert.Equal(t, trx.ID(), unpacked.ID())
}
