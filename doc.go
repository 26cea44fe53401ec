/*
Package quorum defines interfaces used throughout the app, such as: storage,
transactions, handlers, events and addresses. It also contains helpers to
work with the request context.

Extensions live under x/. The x/multisig extension implements the M-of-N
collective authorization state machine on top of these interfaces, x/cash and
x/token provide the native and external value ledgers it moves funds with.
*/
package quorum
