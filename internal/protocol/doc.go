// Package protocol implements the framed JSON protocol spoken between the
// round engine and each player connection.
//
// Every message in either direction is a frame: a 4-byte big-endian length
// followed by exactly that many bytes of UTF-8 JSON. Server to client frames
// carry an action request, a hand reveal (the literal prefix "Hands: "
// followed by a JSON array) or a victory notice. Client to server frames carry
// an action response.
//
// Tagged unions follow the externally tagged convention: unit variants are
// bare strings ("Fold") and variants with a payload are single-key objects
// ({"Raise": 300}).
package protocol
