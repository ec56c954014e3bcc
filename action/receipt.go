// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package action

const (
	// FailureReceiptStatus is the status that a call failed and all of its effects were discarded
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that a call succeeded
	SuccessReceiptStatus = uint64(1)
)

type (
	// Payload carries the operation specific fields of a notification
	Payload map[string]interface{}

	// Event is the notification emitted by a state-changing call. The notification tag names the operation,
	// the payload always carries the sender and caller of the call.
	Event struct {
		Notification string  `json:"notification"`
		Payload      Payload `json:"payload"`
		// Emitter is the module that printed the event
		Emitter string `json:"-"`
	}

	// Receipt represents the result of a call applied in a block
	Receipt struct {
		Status             uint64
		BlockHeight        uint64
		Sender             string
		ExecutionRevertMsg string
		Events             []*Event
	}
)

// NewEvent creates an event
func NewEvent(emitter, notification string, payload Payload) *Event {
	return &Event{
		Notification: notification,
		Payload:      payload,
		Emitter:      emitter,
	}
}

// Succeeded returns true if the call was applied
func (receipt *Receipt) Succeeded() bool {
	return receipt.Status == SuccessReceiptStatus
}

// EventsByNotification returns the events with the given notification tag, in emission order
func (receipt *Receipt) EventsByNotification(notification string) []*Event {
	var events []*Event
	for _, e := range receipt.Events {
		if e.Notification == notification {
			events = append(events, e)
		}
	}
	return events
}
