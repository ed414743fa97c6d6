// Package task defines the uniform contract shared by every dataworks task:
// a Definition registered under a stable identifier, an Invoker that runs it
// synchronously, and the Envelope / *core.Error pair every run produces.
package task
