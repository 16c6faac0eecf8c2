package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/stewart"
)

const maxLogLines = 200

func createSlider(labelText string, onSet func(float64)) (*fyne.Container, *widget.Slider) {
	valueLabel := widget.NewLabel("0")

	slider := widget.NewSlider(-stewart.MaxSpeed, stewart.MaxSpeed)
	slider.Step = 1
	slider.SetValue(0)
	slider.OnChanged = func(value float64) {
		valueLabel.SetText(fmt.Sprintf("%.0f", value))
	}
	slider.OnChangeEnded = onSet

	return container.NewBorder(nil, nil,
		container.NewHBox(widget.NewLabel(labelText), valueLabel),
		nil,
		slider,
	), slider
}

// ControlUI has a slider per motor and a stop button. Controller output written to it is shown in the log
type ControlUI struct {
	mtx      sync.Mutex
	lines    []string
	logLabel *widget.Label
}

var _ io.Writer = &ControlUI{}

func NewControlUI() *ControlUI {
	return &ControlUI{}
}

// Write appends controller output to the log
func (ui *ControlUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		ui.lines = append(ui.lines, line)
	}
	if len(ui.lines) > maxLogLines {
		ui.lines = ui.lines[len(ui.lines)-maxLogLines:]
	}
	text := strings.Join(ui.lines, "\n")
	label := ui.logLabel
	ui.mtx.Unlock()

	if label != nil {
		fyne.Do(func() {
			label.SetText(text)
		})
	}
	return len(p), nil
}

// Show opens the control window. Commands are written to w as lines for controller.Run
func (ui *ControlUI) Show(ctx context.Context, app fyne.App, w io.Writer) {
	window := app.NewWindow("Stewart Platform")

	lastCommandTimer := newTimer()
	lastCommandTimer.Go()

	c := &controllerWrapper{writer: w, lastCommandTimer: lastCommandTimer}

	sliders := make([]*widget.Slider, stewart.NumMotors)
	sliderContainers := make([]fyne.CanvasObject, stewart.NumMotors)
	for i := range stewart.NumMotors {
		sliderContainers[i], sliders[i] = createSlider(fmt.Sprintf("Motor %d", i), func(value float64) {
			c.SetSpeed(i, value)
		})
	}

	stopButton := widget.NewButton("Stop", func() {
		c.Stop()
		for _, s := range sliders {
			s.SetValue(0)
		}
	})
	stopButton.Importance = widget.DangerImportance

	statusButton := widget.NewButton("Status", c.Status)

	ui.mtx.Lock()
	ui.logLabel = widget.NewLabel(strings.Join(ui.lines, "\n"))
	logScroll := container.NewVScroll(ui.logLabel)
	ui.mtx.Unlock()
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	content := container.NewVBox(
		container.NewHBox(
			widget.NewLabel("Last command:"),
			container.NewPadded(lastCommandTimer.text),
			layout.NewSpacer(),
			statusButton,
		),
		stopButton,
		container.NewVBox(sliderContainers...),
		widget.NewAccordion(widget.NewAccordionItem("Logs", logScroll)),
	)

	go func() {
		<-ctx.Done()
		lastCommandTimer.Stop()
		fyne.Do(func() {
			app.Quit()
		})
	}()

	window.SetOnClosed(func() {
		c.Stop()
		lastCommandTimer.Stop()
	})
	window.SetContent(content)
	window.Resize(fyne.NewSize(400, 300))
	window.Show()
}
