package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResettable struct {
	Value       int
	ResetCalled int
}

func (m *mockResettable) Reset() {
	m.Value = 0
	m.ResetCalled++
}

func newMock() *mockResettable {
	return &mockResettable{}
}

func TestPoolGet_EmptyPoolConstructs(t *testing.T) {
	p := New(5, newMock)

	item := p.Get()
	require.NotNil(t, item)
	assert.Equal(t, 0, item.ResetCalled)
	assert.Equal(t, 0, p.Idle())
}

func TestPoolPutResetsAndReuses(t *testing.T) {
	p := New(5, newMock)

	obj := &mockResettable{Value: 42}
	p.Put(obj)

	assert.Equal(t, 1, p.Idle())

	reused := p.Get()
	assert.Same(t, obj, reused)
	assert.Equal(t, 0, reused.Value)
	assert.Equal(t, 1, reused.ResetCalled)
}

func TestPoolCapacityOverflow(t *testing.T) {
	p := New(2, newMock)

	p.Put(&mockResettable{Value: 1})
	p.Put(&mockResettable{Value: 2})
	p.Put(&mockResettable{Value: 3})

	assert.Equal(t, 2, p.Idle())
}

func TestPoolDropsNil(t *testing.T) {
	p := New(5, newMock)

	var nilObj *mockResettable
	p.Put(nilObj)

	assert.Equal(t, 0, p.Idle())
	assert.NotNil(t, p.Get())
}

func TestPoolBuffers(t *testing.T) {
	p := New(1, func() *bytes.Buffer { return new(bytes.Buffer) })

	buf := p.Get()
	buf.WriteString(`{"code":"ABCD1234"}`)
	p.Put(buf)

	again := p.Get()
	assert.Same(t, buf, again)
	assert.Equal(t, 0, again.Len())
}
