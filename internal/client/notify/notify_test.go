package notify

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder_ConcurrentNotify(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.Notify(Warning("w"))
			} else {
				r.Notify(Error("e"))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.All(), 20)
	assert.Equal(t, 10, r.Count(LevelWarning))
	assert.Equal(t, 10, r.Count(LevelError))
	assert.Equal(t, 0, r.Count(LevelSuccess))
}

func TestTerminal_WritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Notify(Success("Timer reset"))
	term.Notify(Notification{Level: "custom", Message: "fallback style"})

	out := buf.String()
	assert.Contains(t, out, "[success]")
	assert.Contains(t, out, "Timer reset")
	assert.Contains(t, out, "fallback style")
}

func TestNotifierFunc(t *testing.T) {
	var got Notification
	NotifierFunc(func(n Notification) { got = n }).Notify(Info("hi"))
	assert.Equal(t, Info("hi"), got)

	Discard.Notify(Error("ignored"))
}
