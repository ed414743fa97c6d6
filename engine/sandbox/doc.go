// Package sandbox confines filesystem access to a single data root.
//
// Every task resolves the paths it reads, writes or deletes through a Guard.
// The Guard canonicalizes both the root and the candidate (absolute form,
// cleaned, symlinks resolved for the portion that exists) and compares them
// component by component, so "/data2/x" is never mistaken for a child of
// "/data".
package sandbox
