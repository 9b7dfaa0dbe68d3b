package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityValidate(t *testing.T) {
	for _, s := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
		assert.NoError(t, s.Validate())
	}
	assert.Error(t, Severity("urgent").Validate())
	assert.Error(t, Severity("").Validate())
}

func TestDispatcher(t *testing.T) {
	t.Run("fans out in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []string
		d.Register(func(n Notification) { order = append(order, "first:"+n.User) })
		d.Register(func(n Notification) { order = append(order, "second:"+n.User) })

		d.Notify("alice", "You're up!", SeverityLow)

		assert.Equal(t, []string{"first:alice", "second:alice"}, order)
	})

	t.Run("carries message and severity", func(t *testing.T) {
		d := NewDispatcher()
		var got Notification
		d.Register(func(n Notification) { got = n })

		d.Notify("bob", "moved to the back", SeverityHigh)

		assert.Equal(t, "bob", got.User)
		assert.Equal(t, "moved to the back", got.Message)
		assert.Equal(t, SeverityHigh, got.Severity)
	})

	t.Run("no sinks is a no-op", func(t *testing.T) {
		d := NewDispatcher()
		assert.NotPanics(t, func() { d.Notify("alice", "hello", SeverityLow) })
	})
}

func TestSubjectPublisher(t *testing.T) {
	t.Run("deduplicates consecutive identical subjects", func(t *testing.T) {
		p := NewSubjectPublisher()
		var got []string
		p.Register(func(s string) { got = append(got, s) })

		p.Publish("Deploying: alice")
		p.Publish("Deploying: alice")
		p.Publish("Deploying: alice")

		assert.Equal(t, []string{"Deploying: alice"}, got)
	})

	t.Run("publishes every change", func(t *testing.T) {
		p := NewSubjectPublisher()
		var got []string
		p.Register(func(s string) { got = append(got, s) })

		p.Publish("Deploying: alice")
		p.Publish("Deploying: nobody")
		p.Publish("Deploying: alice")

		assert.Equal(t, []string{"Deploying: alice", "Deploying: nobody", "Deploying: alice"}, got)
	})

	t.Run("first publish of empty subject still fires", func(t *testing.T) {
		p := NewSubjectPublisher()
		calls := 0
		p.Register(func(string) { calls++ })

		p.Publish("")
		p.Publish("")

		require.Equal(t, 1, calls)
	})

	t.Run("all sinks receive the subject", func(t *testing.T) {
		p := NewSubjectPublisher()
		var a, b string
		p.Register(func(s string) { a = s })
		p.Register(func(s string) { b = s })

		p.Publish("Deploying: carol | In line: dave")

		assert.Equal(t, "Deploying: carol | In line: dave", a)
		assert.Equal(t, b, a)
	})
}
