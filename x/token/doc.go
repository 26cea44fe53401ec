/*
Package token implements fungible tokens that live outside of the native
cash ledger.

Each token is identified by a reference address and has its own balance
table. The Registry resolves a reference into a Service, which is the
transfer interface used by other extensions.
*/
package token
