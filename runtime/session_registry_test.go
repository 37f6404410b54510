package runtime

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/errors"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestSessionRegistry_Bind(t *testing.T) {
	t.Run("should bind both directions and assign a stable color", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)
		conn := newFakeConn("c1")

		sess, err := reg.Bind(conn, "alice")
		req.NoError(err)
		req.Equal("alice", sess.Username)
		req.Regexp(colorPattern, sess.Color)

		byConn, ok := reg.LookupUser("c1")
		req.True(ok)
		req.Equal(sess, byConn)

		byUser, ok := reg.LookupConn("alice")
		req.True(ok)
		req.Equal(sess, byUser)
	})

	t.Run("should refuse a second binding for a live username", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)

		_, err := reg.Bind(newFakeConn("c1"), "alice")
		req.NoError(err)

		_, err = reg.Bind(newFakeConn("c2"), "alice")
		req.ErrorIs(err, errors.ErrAlreadyOnline)

		// The original binding must be untouched.
		sess, ok := reg.LookupConn("alice")
		req.True(ok)
		req.Equal("c1", sess.Conn.ID())
	})

	t.Run("should never let two concurrent binds for one username both succeed", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)

		const attempts = 32
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := reg.Bind(newFakeConn(fmt.Sprintf("c%d", i)), "alice"); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		req.Equal(1, succeeded)
	})

	t.Run("should give a reproducible palette for a given seed", func(t *testing.T) {
		req := require.New(t)
		first := NewSessionRegistry(42)
		second := NewSessionRegistry(42)

		for i, name := range []string{"alice", "bob", "carol"} {
			id := fmt.Sprintf("c%d", i)
			a, err := first.Bind(newFakeConn(id), name)
			req.NoError(err)
			b, err := second.Bind(newFakeConn(id), name)
			req.NoError(err)
			req.Equal(a.Color, b.Color)
		}
	})
}

func TestSessionRegistry_Unbind(t *testing.T) {
	t.Run("should remove both directions", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)
		_, err := reg.Bind(newFakeConn("c1"), "alice")
		req.NoError(err)

		sess, ok := reg.Unbind("c1")
		req.True(ok)
		req.Equal("alice", sess.Username)

		_, ok = reg.LookupUser("c1")
		req.False(ok)
		_, ok = reg.LookupConn("alice")
		req.False(ok)
	})

	t.Run("should be a no-op for a connection that never bound", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)

		_, ok := reg.Unbind("ghost")
		req.False(ok)
		// Twice in a row stays safe.
		_, ok = reg.Unbind("ghost")
		req.False(ok)
	})

	t.Run("should free the username for a fresh bind", func(t *testing.T) {
		req := require.New(t)
		reg := NewSessionRegistry(1)

		_, err := reg.Bind(newFakeConn("c1"), "alice")
		req.NoError(err)
		_, ok := reg.Unbind("c1")
		req.True(ok)

		_, err = reg.Bind(newFakeConn("c2"), "alice")
		req.NoError(err)
	})
}
