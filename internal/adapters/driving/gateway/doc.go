// Package gateway exposes the pipeline over HTTP and WebSocket.
//
// JSON routes wrap the driving ports one to one. A WebSocket connection on
// /ws is a single conversation session: it is opened on connect, every text
// frame is one question, and the session is closed when the peer goes away.
package gateway
