/*
Package x contains the extensions of the quorum application

Extensions implement common functionality (Handler, Decorator,
etc.) and are combined together to construct an application.
This package holds the helpers shared by all of them, most importantly
the Authenticator used by handlers to learn who signed a transaction.
*/
package x
