package locker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStream_DrainsThenEnds(t *testing.T) {
	s := newStream[int]()
	for i := range 3 {
		s.push(i)
	}
	s.close()
	s.push(99)

	var got []int
	for v := range s.seq() {
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 1, 2}, got)

	for range s.seq() {
		t.Fatal("second range must yield nothing")
	}
}

func TestStream_EarlyStopDiscards(t *testing.T) {
	s := newStream[int]()
	s.push(1)
	s.push(2)

	for range s.seq() {
		break
	}
	s.push(3)
	assert.Empty(t, s.buf)
}

func TestStream_BlocksUntilPushed(t *testing.T) {
	s := newStream[string]()
	done := make(chan []string)
	go func() {
		var got []string
		for v := range s.seq() {
			got = append(got, v)
		}
		done <- got
	}()

	s.push("a")
	s.push("b")
	s.close()
	assert.Equal(t, []string{"a", "b"}, <-done)
}
