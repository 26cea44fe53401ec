/*
Package multisig implements M-of-N collective authorization of a shared
treasury.

A fixed set of owners decides together on proposals. Every proposal carries
exactly one action: a native coin transfer, a token transfer, adding or
removing an owner, or changing the approval threshold. An owner creates a
proposal, other owners approve it (the proposer never can), and once the
number of approvals reaches the current threshold any owner executes it.
A proposal is executed at most once and cannot be approved or executed
once the block height reaches its expiry.

Owner set and threshold are only changed by executing governance proposals.
Every such change validates the invariants

	1 <= threshold <= owner count

against the state at execution time, never trusting the validation done
when the proposal was created.

Token transfers are executed through a separate ExecuteTokenMsg that
references the token service. The proposal is marked executed before the
token service is called, so a token service calling back into this
extension observes the proposal as executed.
*/
package multisig
