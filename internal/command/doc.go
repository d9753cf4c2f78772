// Package command implements the announce command surface shared by the
// console, in-game dispatch and the Telegram operator channel.
//
// A single declarative verb table maps sub-verbs to capabilities and
// argument counts. The Dispatcher checks the table once, runs the handler
// and always reports the command as handled; users get the generic
// invalid-arguments text for unknown verbs, bad arity and missing capability.
package command
