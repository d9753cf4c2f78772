// Package host describes the server the announcer talks to: who is online,
// how text reaches them, how console commands are dispatched and which
// capabilities a sender holds.
//
// Implementations live in the console and rcon subpackages.
package host
