// Package flows holds the session lifecycle logic behind the root engine
// methods. Each flow is a plain function taking an explicit dependency
// struct of small funcs, so the logic stays testable without the root
// package, its config, or a live store. Failures come back as classified
// kinds; the root engine maps kinds to its public sentinel errors.
package flows
