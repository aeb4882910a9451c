package chain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

var ErrInvalidTransactionID = errors.New("transaction id must be a 64 character hex string")

// TransactionID is the identity of a transaction. It travels on the wire as a
// lowercase hex string.
type TransactionID [32]byte

// ParseTransactionID decodes a transaction id from its hex representation.
func ParseTransactionID(s string) (TransactionID, error) {
	var id TransactionID
	if len(s) != hex.EncodedLen(len(id)) {
		return TransactionID{}, ErrInvalidTransactionID
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return TransactionID{}, ErrInvalidTransactionID
	}
	return id, nil
}

// IsZero reports whether the id is the all-zero sentinel.
func (id TransactionID) IsZero() bool {
	return id == TransactionID{}
}

func (id TransactionID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText encodes the id as lowercase hex.
func (id TransactionID) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(id)))
	hex.Encode(dst, id[:])
	return dst, nil
}

// UnmarshalText decodes the id from hex.
func (id *TransactionID) UnmarshalText(text []byte) error {
	if len(text) != hex.EncodedLen(len(id)) {
		return ErrInvalidTransactionID
	}
	if _, err := hex.Decode(id[:], text); err != nil {
		return ErrInvalidTransactionID
	}
	return nil
}

// Transaction contains the transaction fields the tracking subsystem records:
// the TAPOS reference block fields echoed back to a waiting client and the
// protocol level expiration slot.
type Transaction struct {
	Expiration     Slot   `json:"expiration"`
	RefBlockNum    uint16 `json:"ref_block_num"`
	RefBlockPrefix uint32 `json:"ref_block_prefix"`
	Payload        []byte `json:"payload,omitempty"`
}

// ID computes the identity digest of the transaction.
func (t *Transaction) ID() TransactionID {
	data := make([]byte, 0, 16+len(t.Payload))
	data = binary.LittleEndian.AppendUint32(data, uint32(t.Expiration))
	data = binary.LittleEndian.AppendUint16(data, t.RefBlockNum)
	data = binary.LittleEndian.AppendUint32(data, t.RefBlockPrefix)
	data = append(data, t.Payload...)
	return sha256.Sum256(data)
}

// PackedTransaction carries the full transaction body inside a block receipt.
type PackedTransaction struct {
	Trx Transaction `json:"transaction"`
}

// Transaction unpacks the transaction body.
func (p *PackedTransaction) Transaction() Transaction {
	return p.Trx
}

// Receipt is a single entry of a block's transaction list. A receipt either
// references the transaction by id only or carries the packed body. Receipts
// without a packed body have no reference block fields to report and are
// skipped by the tracking subsystem.
type Receipt struct {
	ID     TransactionID      `json:"id"`
	Packed *PackedTransaction `json:"packed,omitempty"`
}

// IsPacked reports whether the receipt carries the packed transaction body.
func (r Receipt) IsPacked() bool {
	return r.Packed != nil
}

// PackedReceipt builds a receipt carrying the packed transaction body.
func PackedReceipt(trx Transaction) Receipt {
	return Receipt{ID: trx.ID(), Packed: &PackedTransaction{Trx: trx}}
}

// SubmitResult is returned by the chain layer after a successful
// push_transaction or send_transaction.
type SubmitResult struct {
	TransactionID TransactionID `json:"transaction_id"`
	Expiration    Slot          `json:"expiration"`
}
