// Package coinbase implements the exchange.Exchange interface for the
// Coinbase Pro authenticated REST API: accounts, orders and fills.
//
// Requests are signed with the CB-ACCESS-* HMAC headers, either from a
// single set of credentials or from a rotating key ring.
//
// API Documentation: https://docs.pro.coinbase.com
package coinbase
