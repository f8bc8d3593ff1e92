// Package htquic serves hash tree leaves and their inclusion proofs
// over QUIC, and provides a client that verifies every proof it receives.
//
// Each request uses its own bidirectional stream.
// The client writes a single request message and closes its send side;
// the server replies with one CBOR-encoded response and closes the stream.
package htquic
