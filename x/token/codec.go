package token

import (
	"github.com/iov-one/quorum"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*quorum.Msg)(nil), nil)
	RegisterCodec(cdc)
}

// RegisterCodec registers all messages of this extension with given codec.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterConcrete(&CreateTokenMsg{}, "token/CreateTokenMsg", nil)
	cdc.RegisterConcrete(&TransferMsg{}, "token/TransferMsg", nil)
}
