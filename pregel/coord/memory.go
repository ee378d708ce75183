// Package coord provides CoordinationStore (pregel.C1) implementations:
// an in-process mock for tests and single-machine runs, and a ZooKeeper
// backend for real deployments.
package coord

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kafka-graphs/pregel-go/pregel"
)

type memoryNode struct {
	data     []byte
	ephemeral bool
	children map[string]*memoryNode
	seq      int
}

// Memory is an in-process CoordinationStore backed by a plain tree of
// nodes guarded by a single mutex. It implements the same hierarchical,
// ephemeral-node, watch-driven contract a ZooKeeper-backed store would,
// which is what lets the barrier protocol (C2) and worker lifecycle (C7)
// be exercised in tests without an external service (spec §4.1, §8).
type Memory struct {
	mu       sync.Mutex
	root     *memoryNode
	watchers map[string][]chan pregel.TreeEvent
}

// NewMemory returns an empty in-process coordination tree.
func NewMemory() *Memory {
	return &Memory{
		root:     &memoryNode{children: make(map[string]*memoryNode)},
		watchers: make(map[string][]chan pregel.TreeEvent),
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (m *Memory) walk(parts []string, create bool) (*memoryNode, bool) {
	node := m.root
	for _, part := range parts {
		child, ok := node.children[part]
		if !ok {
			if !create {
				return nil, false
			}
			child = &memoryNode{children: make(map[string]*memoryNode)}
			node.children[part] = child
		}
		node = child
	}
	return node, true
}

func (m *Memory) Create(_ context.Context, p string, data []byte, mode pregel.CreateMode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := splitPath(p)
	if len(parts) == 0 {
		return "", fmt.Errorf("pregel/coord: empty path")
	}

	if mode == pregel.ModeEphemeralSequential {
		parent, _ := m.walk(parts[:len(parts)-1], true)
		base := parts[len(parts)-1]
		seq := 0
		for name := range parent.children {
			if strings.HasPrefix(name, base) {
				if n, err := strconv.Atoi(strings.TrimPrefix(name, base)); err == nil && n >= seq {
					seq = n + 1
				}
			}
		}
		name := fmt.Sprintf("%s%010d", base, seq)
		parent.children[name] = &memoryNode{children: make(map[string]*memoryNode), ephemeral: true, seq: seq}
		full := path.Join(strings.Join(parts[:len(parts)-1], "/"), name)
		m.notifyLocked(path.Join(parts[:len(parts)-1]...), pregel.TreeEventChildrenChanged)
		return "/" + full, nil
	}

	parent, _ := m.walk(parts[:len(parts)-1], true)
	name := parts[len(parts)-1]
	if _, exists := parent.children[name]; exists {
		return "", pregel.ErrAlreadyExists
	}
	parent.children[name] = &memoryNode{
		data:      append([]byte(nil), data...),
		ephemeral: mode == pregel.ModeEphemeral,
		children:  make(map[string]*memoryNode),
	}
	m.notifyLocked(path.Join(parts[:len(parts)-1]...), pregel.TreeEventChildrenChanged)
	return "/" + p, nil
}

func (m *Memory) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.walk(splitPath(p), false)
	return ok, nil
}

func (m *Memory) GetData(_ context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.walk(splitPath(p), false)
	if !ok {
		return nil, pregel.ErrNotFound
	}
	return append([]byte(nil), node.data...), nil
}

func (m *Memory) SetData(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.walk(splitPath(p), false)
	if !ok {
		return pregel.ErrNotFound
	}
	node.data = append([]byte(nil), data...)
	m.notifyLocked(p, pregel.TreeEventDataChanged)
	return nil
}

func (m *Memory) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := splitPath(p)
	if len(parts) == 0 {
		return nil
	}
	parent, ok := m.walk(parts[:len(parts)-1], false)
	if !ok {
		return nil // missing parent: idempotent no-op (spec §7 kind 2)
	}
	delete(parent.children, parts[len(parts)-1])
	m.notifyLocked(path.Join(parts[:len(parts)-1]...), pregel.TreeEventChildrenChanged)
	return nil
}

func (m *Memory) Children(_ context.Context, p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	node, ok := m.walk(splitPath(p), false)
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) SubscribeTree(ctx context.Context, p string) (<-chan pregel.TreeEvent, error) {
	ch := make(chan pregel.TreeEvent, 16)
	m.mu.Lock()
	m.watchers[p] = append(m.watchers[p], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.watchers[p]
		for i, w := range watchers {
			if w == ch {
				m.watchers[p] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// notifyLocked delivers a change event to every watcher registered on p or
// any ancestor of p, mirroring a real tree-watch service's bubbling
// semantics. Must be called with mu held.
func (m *Memory) notifyLocked(p string, eventType pregel.TreeEventType) {
	p = strings.Trim(p, "/")
	for watchPath, chans := range m.watchers {
		wp := strings.Trim(watchPath, "/")
		if p == wp || strings.HasPrefix(p, wp+"/") || strings.HasPrefix(wp, p+"/") {
			for _, ch := range chans {
				select {
				case ch <- pregel.TreeEvent{Type: eventType, Path: p}:
				default:
				}
			}
		}
	}
}

var _ pregel.CoordinationStore = (*Memory)(nil)
