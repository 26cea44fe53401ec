package app

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/crypto"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/iov-one/quorum/x/sigs"
	"github.com/iov-one/quorum/x/token"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*quorum.Msg)(nil), nil)
	cash.RegisterCodec(cdc)
	token.RegisterCodec(cdc)
	multisig.RegisterCodec(cdc)
}

// Tx is the transaction accepted by the application. It carries a single
// message together with the signatures authorizing it.
type Tx struct {
	Msg        quorum.Msg           `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

var _ quorum.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction for given message.
func NewTx(msg quorum.Msg) *Tx {
	return &Tx{Msg: msg}
}

func (tx *Tx) GetMsg() (quorum.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the encoded transaction without the signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	cpy := Tx{Msg: tx.Msg}
	return cdc.MarshalBinaryBare(&cpy)
}

// Sign appends a signature of given key. seq must be the next sequence of
// the signer, see sigs.NextSequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, tx)
}

// DecodeTx parses the binary representation of a Tx.
func DecodeTx(raw []byte) (quorum.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "tx")
	}
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode tx: %s", err)
	}
	return &tx, nil
}

var _ quorum.TxDecoder = DecodeTx

// DecodeTxJSON parses the JSON representation of a Tx as produced by
// EncodeTxJSON.
func DecodeTxJSON(raw []byte) (*Tx, error) {
	var tx Tx
	if err := cdc.UnmarshalJSON(raw, &tx); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode tx json: %s", err)
	}
	return &tx, nil
}

// EncodeTxJSON renders the transaction as amino JSON, with the message type
// included.
func EncodeTxJSON(tx *Tx) ([]byte, error) {
	return cdc.MarshalJSON(tx)
}
