// Package interfaces holds compile-time checks that the repository
// types satisfy the small consumer-side interfaces declared next to
// the code that uses them (the task queue in particular).
//
// The convention throughout the codebase is:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// Add a check here whenever a repository grows a new consumer-side
// interface, so a signature drift fails the build rather than a task.
package interfaces
