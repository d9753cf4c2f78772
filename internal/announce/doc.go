// Package announce implements the announcement selection and delivery cycle.
//
// A Service owns the ordered announcement Store, the rotation Selector and the
// delivery settings. Each trigger selects one template, splits it on the "&n"
// marker and either dispatches each part as a server command or renders it
// with the configured tag and colors before fanning it out to recipients.
//
// Mutations are write-through: every successful mutator calls the Persister
// exactly once with the resulting Settings.
package announce
