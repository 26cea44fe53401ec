/*
Package app runs the extensions as a single node chain.

Application keeps the committed state in a CommitKVStore and drives the
extensions with InitChain, BeginBlock, CheckTx, DeliverTx and Commit.
NewStack wires the standard set of extensions behind a Router and a chain
of Decorators.
*/
package app
