// Package stockfighter is a client binding for the StockFighter
// trading-simulation API. It issues authenticated REST calls either
// synchronously, through a blocking bridge that parks the calling goroutine
// until the asynchronous transport reports a terminal outcome, or
// asynchronously as cold observables, and relays the streaming WebSocket
// feed into a hot observable that any number of subscribers can share.
//
// The reactive primitives live in the rx subpackage; this package wires them
// to concrete net/http and gorilla/websocket transports, both replaceable
// behind small capability interfaces.
package stockfighter
