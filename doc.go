// Package events implements an event listing backend with a complete
// account lifecycle: registration with emailed verification codes,
// password login issuing signed bearer tokens, code based password
// resets, and event records with owner scoped status transitions plus
// an administrative surface over the same repositories.
package events
