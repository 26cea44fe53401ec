/*
Package cash implements the native coin ledger.

Every address owns a wallet holding a normalized set of coins. Other
extensions move coins through the Controller, users send coins with the
SendMsg. Wallets are loaded from genesis under the "cash" key.
*/
package cash
