package strand

import (
	"unsafe"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/constraint"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case TRIGGER_ENTER:
		return "trigger_enter"
	case COLLISION_ENTER:
		return "collision_enter"
	case TRIGGER_STAY:
		return "trigger_stay"
	case COLLISION_STAY:
		return "collision_stay"
	case TRIGGER_EXIT:
		return "trigger_exit"
	case COLLISION_EXIT:
		return "collision_exit"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	}
	return "unknown"
}

// Event is anything the world reports at the end of a frame
type Event interface {
	Type() EventType
}

// ContactEvent reports a change in the contact state of two rigid bodies.
// Triggers and solid collisions share it, Kind tells them apart.
type ContactEvent struct {
	Kind  EventType
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e ContactEvent) Type() EventType { return e.Kind }

type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

type EventListener func(event Event)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey orders the pair by address, so (A, B) and (B, A) share a key
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if uintptr(unsafe.Pointer(bodyB)) < uintptr(unsafe.Pointer(bodyA)) {
		bodyA, bodyB = bodyB, bodyA
	}
	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

func (p pairKey) isTrigger() bool {
	return p.bodyA.IsTrigger || p.bodyB.IsTrigger
}

func (p pairKey) event(trigger, collision EventType) ContactEvent {
	kind := collision
	if p.isTrigger() {
		kind = trigger
	}
	return ContactEvent{Kind: kind, BodyA: p.bodyA, BodyB: p.bodyB}
}

// Events buffers what happens during a frame and dispatches it to listeners on flush
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event

	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollisions marks every pair in contact during the substep, and drops
// the contacts involving a trigger, which are never solved
func (e *Events) recordCollisions(constraints []*constraint.ContactConstraint) []*constraint.ContactConstraint {
	n := 0
	for _, c := range constraints {
		e.currentActivePairs[makePairKey(c.BodyA, c.BodyB)] = true

		if !c.BodyA.IsTrigger && !c.BodyB.IsTrigger {
			constraints[n] = c
			n++
		}
	}
	return constraints[:n]
}

// forget drops every state kept for a body leaving the world
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	for pair := range e.previousActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processCollisionEvents compares this frame's pairs with the previous frame's
func (e *Events) processCollisionEvents() {
	for pair := range e.currentActivePairs {
		// two sleeping bodies would report Stay forever
		if pair.bodyA.IsSleeping && pair.bodyB.IsSleeping {
			continue
		}
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, pair.event(TRIGGER_STAY, COLLISION_STAY))
		} else {
			e.buffer = append(e.buffer, pair.event(TRIGGER_ENTER, COLLISION_ENTER))
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, pair.event(TRIGGER_EXIT, COLLISION_EXIT))
		}
	}

	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		switch {
		case !trackedState && body.IsSleeping:
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		case trackedState && !body.IsSleeping:
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
