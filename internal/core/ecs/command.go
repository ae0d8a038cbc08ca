package ecs

import (
	"sync/atomic"

	"github.com/shardfall/server/internal/invariant"
)

type opKind uint8

const (
	opCreate opKind = iota + 1
	opAdd
	opSet
	opRemove
	opDestroy
)

func (k opKind) String() string {
	switch k {
	case opCreate:
		return "create"
	case opAdd:
		return "add"
	case opSet:
		return "set"
	case opRemove:
		return "remove"
	case opDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Ref is a command target: either a live Entity or a DeferredEntity created
// earlier in the same CommandBuffer.
type Ref interface {
	ref() ref
}

type ref struct {
	entity Entity
	owner  uint64
	local  int32 // 1-based index into the owning buffer's creations, 0 for entity refs
}

// DeferredEntity is a placeholder for an entity a CommandBuffer will create
// at playback. It is only meaningful to the buffer that returned it.
type DeferredEntity struct {
	owner uint64
	local int32
}

func (d DeferredEntity) ref() ref { return ref{owner: d.owner, local: d.local} }

type command struct {
	kind   opKind
	target ref
	typ    ComponentType
	value  any
}

var bufferIDs atomic.Uint64

// CommandBuffer is an append-only log of deferred store mutations. One
// buffer belongs to one scheduling unit and is never shared between
// goroutines. Playback applies buffers in SortKey order, then in emission
// order within a buffer.
type CommandBuffer struct {
	id      uint64
	sortKey uint64
	cmds    []command
	created int32
}

func NewCommandBuffer(sortKey uint64) *CommandBuffer {
	return &CommandBuffer{
		id:      bufferIDs.Add(1),
		sortKey: sortKey,
		cmds:    make([]command, 0, 32),
	}
}

// SortKey orders this buffer relative to the other shards of a playback.
func (b *CommandBuffer) SortKey() uint64 { return b.sortKey }

// Len reports how many commands are queued.
func (b *CommandBuffer) Len() int { return len(b.cmds) }

// Reset empties the buffer and gives it a fresh identity so deferred
// entities handed out before the reset cannot resolve against it.
func (b *CommandBuffer) Reset(sortKey uint64) {
	b.id = bufferIDs.Add(1)
	b.sortKey = sortKey
	b.cmds = b.cmds[:0]
	b.created = 0
}

// CreateEntity queues an entity creation and returns its placeholder.
func (b *CommandBuffer) CreateEntity() DeferredEntity {
	b.created++
	d := DeferredEntity{owner: b.id, local: b.created}
	b.cmds = append(b.cmds, command{kind: opCreate, target: d.ref()})
	return d
}

// Destroy queues destruction of target. Destroying an entity that is gone by
// playback time is a no-op.
func (b *CommandBuffer) Destroy(target Ref) {
	b.push(command{kind: opDestroy, target: target.ref()})
}

func (b *CommandBuffer) push(c command) {
	invariant.Assert(c.target.local == 0 || c.target.owner == b.id,
		"deferred entity used outside the command buffer that created it")
	b.cmds = append(b.cmds, c)
}

// Mark is a rollback point in a CommandBuffer.
type Mark struct {
	cmds    int
	created int32
}

// Mark returns the current position so a failed unit of work can be undone.
func (b *CommandBuffer) Mark() Mark {
	return Mark{cmds: len(b.cmds), created: b.created}
}

// Rollback truncates the buffer back to m.
func (b *CommandBuffer) Rollback(m Mark) {
	if m.cmds < 0 || m.cmds >= len(b.cmds) {
		return
	}
	for i := m.cmds; i < len(b.cmds); i++ {
		b.cmds[i] = command{}
	}
	b.cmds = b.cmds[:m.cmds]
	b.created = m.created
}

// AddComponent queues attaching c to target, overwriting any existing T.
func AddComponent[T any](b *CommandBuffer, target Ref, c T) {
	b.push(command{kind: opAdd, target: target.ref(), typ: TypeOf[T](), value: c})
}

// SetComponent queues overwriting target's existing T. It is skipped at
// playback if target no longer carries a T.
func SetComponent[T any](b *CommandBuffer, target Ref, c T) {
	b.push(command{kind: opSet, target: target.ref(), typ: TypeOf[T](), value: c})
}

// RemoveComponent queues detaching target's T.
func RemoveComponent[T any](b *CommandBuffer, target Ref) {
	b.push(command{kind: opRemove, target: target.ref(), typ: TypeOf[T]()})
}
