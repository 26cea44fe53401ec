package multisig

import (
	"github.com/iov-one/quorum"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*quorum.Msg)(nil), nil)
	RegisterCodec(cdc)
}

// RegisterCodec registers the action variants and all messages of this
// extension with given codec. The codec must have the quorum.Msg interface
// registered.
func RegisterCodec(cdc *amino.Codec) {
	cdc.RegisterInterface((*Action)(nil), nil)
	cdc.RegisterConcrete(&SendAction{}, "multisig/SendAction", nil)
	cdc.RegisterConcrete(&TokenSendAction{}, "multisig/TokenSendAction", nil)
	cdc.RegisterConcrete(&AddOwnerAction{}, "multisig/AddOwnerAction", nil)
	cdc.RegisterConcrete(&RemoveOwnerAction{}, "multisig/RemoveOwnerAction", nil)
	cdc.RegisterConcrete(&ChangeThresholdAction{}, "multisig/ChangeThresholdAction", nil)

	cdc.RegisterConcrete(&CreateSendProposalMsg{}, "multisig/CreateSendProposalMsg", nil)
	cdc.RegisterConcrete(&CreateTokenSendProposalMsg{}, "multisig/CreateTokenSendProposalMsg", nil)
	cdc.RegisterConcrete(&CreateAddOwnerProposalMsg{}, "multisig/CreateAddOwnerProposalMsg", nil)
	cdc.RegisterConcrete(&CreateRemoveOwnerProposalMsg{}, "multisig/CreateRemoveOwnerProposalMsg", nil)
	cdc.RegisterConcrete(&CreateChangeThresholdProposalMsg{}, "multisig/CreateChangeThresholdProposalMsg", nil)
	cdc.RegisterConcrete(&ApproveMsg{}, "multisig/ApproveMsg", nil)
	cdc.RegisterConcrete(&RevokeMsg{}, "multisig/RevokeMsg", nil)
	cdc.RegisterConcrete(&ExecuteMsg{}, "multisig/ExecuteMsg", nil)
	cdc.RegisterConcrete(&ExecuteTokenMsg{}, "multisig/ExecuteTokenMsg", nil)
}
