package keylock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockSerialisesSameKey(t *testing.T) {
	k := New()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("alpha")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, k.locks, "idle keys are released")
}

func TestLockDoesNotBlockOtherKeys(t *testing.T) {
	k := New()
	unlock := k.Lock("alpha")
	defer unlock()

	acquired := make(chan struct{})
	go func() {
		k.Lock("beta")()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("beta waited on alpha")
	}
}
