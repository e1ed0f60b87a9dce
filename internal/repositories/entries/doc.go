// Package entries stores persisted tasting entries and their per-entry
// extra-field and flavor values. Child rows are always written after the
// parent entry row exists; the aggregate commit wraps the whole pass in a
// transaction via dbx.WithTx.
package entries
