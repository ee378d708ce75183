package coord

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"

	"github.com/kafka-graphs/pregel-go/pregel"
)

// ZK is a ZooKeeper-backed CoordinationStore (spec §4.1), the external
// hierarchical ephemeral-node tree a production Pregel deployment actually
// coordinates through. Node paths are bit-exact with pregel.JobRoot and the
// barrier/aggregate/group/leader layout spec §6 fixes.
type ZK struct {
	conn *zk.Conn
	acl  []zk.ACL
}

// DialZK connects to a ZooKeeper ensemble at the given addresses.
func DialZK(servers []string, sessionTimeout time.Duration) (*ZK, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("pregel/coord: connect to zookeeper: %w", err)
	}
	return &ZK{conn: conn, acl: zk.WorldACL(zk.PermAll)}, nil
}

// Close releases the underlying ZooKeeper session.
func (z *ZK) Close() { z.conn.Close() }

// retryBackoffBase and retryAttempts implement the CoordinationStore
// contract's "retry transient errors with bounded exponential backoff (base
// 1s, cap 3 attempts by default)" (pregel.CoordinationStore doc).
const (
	retryBackoffBase = time.Second
	retryAttempts    = 3
)

// isTransient reports whether err is worth retrying rather than surfacing
// immediately. Session loss is always fatal (spec §7 kind 3) and the
// sentinel "not found"/"already exists" translations are semantic results,
// not failures, so neither is retried.
func isTransient(err error) bool {
	switch err {
	case nil, zk.ErrNoNode, zk.ErrNodeExists:
		return false
	case zk.ErrSessionExpired, zk.ErrClosing, zk.ErrConnectionClosed:
		return false
	default:
		return true
	}
}

// withRetry runs op up to retryAttempts times, sleeping base*2^attempt
// between tries, stopping early on ctx cancellation or a non-transient
// error.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		err = op()
		if err == zk.ErrSessionExpired {
			return pregel.ErrSessionExpired
		}
		if !isTransient(err) {
			return err
		}
		if attempt == retryAttempts-1 {
			break
		}
		backoff := retryBackoffBase * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func zkPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// ensureParents creates every missing persistent ancestor of p, since
// ZooKeeper refuses to create a node whose parent does not exist.
func (z *ZK) ensureParents(p string) error {
	dir := path.Dir(p)
	if dir == "/" || dir == "." {
		return nil
	}
	exists, _, err := z.conn.Exists(dir)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := z.ensureParents(dir); err != nil {
		return err
	}
	_, err = z.conn.Create(dir, nil, 0, z.acl)
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}

func (z *ZK) Create(ctx context.Context, p string, data []byte, mode pregel.CreateMode) (string, error) {
	p = zkPath(p)
	if err := z.ensureParents(p); err != nil {
		return "", fmt.Errorf("pregel/coord: ensure parents of %s: %w", p, err)
	}

	var flags int32
	switch mode {
	case pregel.ModeEphemeral:
		flags = zk.FlagEphemeral
	case pregel.ModeEphemeralSequential:
		flags = zk.FlagEphemeral | zk.FlagSequence
	}

	var created string
	err := withRetry(ctx, func() error {
		var opErr error
		created, opErr = z.conn.Create(p, data, flags, z.acl)
		return opErr
	})
	if err != nil {
		if err == zk.ErrNodeExists {
			return "", pregel.ErrAlreadyExists
		}
		return "", fmt.Errorf("pregel/coord: create %s: %w", p, err)
	}
	return created, nil
}

func (z *ZK) Exists(ctx context.Context, p string) (bool, error) {
	var exists bool
	err := withRetry(ctx, func() error {
		var opErr error
		exists, _, opErr = z.conn.Exists(zkPath(p))
		return opErr
	})
	if err != nil {
		return false, fmt.Errorf("pregel/coord: exists %s: %w", p, err)
	}
	return exists, nil
}

func (z *ZK) GetData(ctx context.Context, p string) ([]byte, error) {
	var data []byte
	err := withRetry(ctx, func() error {
		var opErr error
		data, _, opErr = z.conn.Get(zkPath(p))
		return opErr
	})
	if err != nil {
		if err == zk.ErrNoNode {
			return nil, pregel.ErrNotFound
		}
		return nil, fmt.Errorf("pregel/coord: get %s: %w", p, err)
	}
	return data, nil
}

func (z *ZK) SetData(ctx context.Context, p string, data []byte) error {
	var stat *zk.Stat
	err := withRetry(ctx, func() error {
		var opErr error
		_, stat, opErr = z.conn.Get(zkPath(p))
		return opErr
	})
	if err != nil {
		if err == zk.ErrNoNode {
			return pregel.ErrNotFound
		}
		return fmt.Errorf("pregel/coord: get %s before set: %w", p, err)
	}
	err = withRetry(ctx, func() error {
		_, opErr := z.conn.Set(zkPath(p), data, stat.Version)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("pregel/coord: set %s: %w", p, err)
	}
	return nil
}

func (z *ZK) Delete(ctx context.Context, p string) error {
	err := withRetry(ctx, func() error {
		return z.conn.Delete(zkPath(p), -1)
	})
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("pregel/coord: delete %s: %w", p, err)
	}
	return nil // missing-node deletes are a successful no-op (spec §7 kind 2)
}

func (z *ZK) Children(ctx context.Context, p string) ([]string, error) {
	var children []string
	err := withRetry(ctx, func() error {
		var opErr error
		children, _, opErr = z.conn.Children(zkPath(p))
		return opErr
	})
	if err != nil {
		if err == zk.ErrNoNode {
			return nil, nil
		}
		return nil, fmt.Errorf("pregel/coord: children %s: %w", p, err)
	}
	return children, nil
}

// SubscribeTree polls ZooKeeper's native single-shot child watches,
// re-arming after every fire, and forwards events on the returned channel
// until ctx is canceled or the session expires (spec §4.1, §7 kind 3).
// The watch covers only the immediate children of p: changes deeper in the
// subtree, and data changes, produce no event.
func (z *ZK) SubscribeTree(ctx context.Context, p string) (<-chan pregel.TreeEvent, error) {
	out := make(chan pregel.TreeEvent, 16)
	go z.watchLoop(ctx, zkPath(p), out)
	return out, nil
}

func (z *ZK) watchLoop(ctx context.Context, p string, out chan<- pregel.TreeEvent) {
	defer close(out)
	for {
		_, _, events, err := z.conn.ChildrenW(p)
		if err != nil {
			if err == zk.ErrNoNode {
				select {
				case <-ctx.Done():
					return
				case <-time.After(250 * time.Millisecond):
					continue
				}
			}
			select {
			case out <- pregel.TreeEvent{Type: pregel.TreeEventSessionExpired, Path: p, Err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Err != nil {
				select {
				case out <- pregel.TreeEvent{Type: pregel.TreeEventSessionExpired, Path: p, Err: ev.Err}:
				case <-ctx.Done():
				}
				return
			}
			eventType := pregel.TreeEventChildrenChanged
			if ev.Type == zk.EventNodeDataChanged {
				eventType = pregel.TreeEventDataChanged
			}
			select {
			case out <- pregel.TreeEvent{Type: eventType, Path: p}:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ pregel.CoordinationStore = (*ZK)(nil)
