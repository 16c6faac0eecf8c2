package ui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

const idleText = "--:--.---"

// timer shows the time since Set was last called
type timer struct {
	startTime time.Time
	mtx       sync.Mutex
	text      *canvas.Text
	stop      chan struct{}
	stopOnce  sync.Once
}

func newTimer() *timer {
	return &timer{
		text: canvas.NewText(idleText, nil),
		stop: make(chan struct{}),
	}
}

func (t *timer) Set(start time.Time) {
	t.mtx.Lock()
	t.startTime = start
	t.mtx.Unlock()
}

func (t *timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *timer) Go() {
	ticker := time.NewTicker(64 * time.Millisecond)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
			}

			t.mtx.Lock()
			text := formatElapsed(t.startTime, time.Now())
			t.mtx.Unlock()

			fyne.Do(func() {
				t.text.Text = text
				t.text.Refresh()
			})
		}
	}()
}

// formatElapsed formats the time since start as mm:ss.mmm. A zero start means nothing has happened yet
func formatElapsed(start, now time.Time) string {
	if start.IsZero() {
		return idleText
	}

	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	millis := int(elapsed.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}
