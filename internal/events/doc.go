// Package events provides types and interfaces for in-process domain
// events. Services emit events without knowing which handlers will process
// them, so reactions like subject recency updates and progress tracking
// stay decoupled from the session lifecycle service.
//
// The primary components are:
// - Event: a typed envelope with a JSON payload
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
