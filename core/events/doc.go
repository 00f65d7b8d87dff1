// Package events defines the scheduling events emitted on the event bus.
//
// A run publishes RunStarted, then exactly one of RunCompleted or RunFailed.
package events
