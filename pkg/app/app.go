// Package app renders long-running backup operations with bubbletea.
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kerbaras/shelf/pkg/app/components"
	"github.com/kerbaras/shelf/pkg/app/styles"
	"github.com/kerbaras/shelf/pkg/services"
)

type eventMsg services.Event

type streamClosedMsg struct{}

// Operation is a bubbletea model following one export or import through
// its progress subscription. Ctrl+C triggers the supplied cancel func;
// the model exits when the progress stream closes.
type Operation struct {
	title   string
	sub     *services.Subscriber
	tracker *components.Tracker
	cancel  func()
}

func NewOperation(title string, sub *services.Subscriber, cancel func()) *Operation {
	return &Operation{
		title:   title,
		sub:     sub,
		tracker: components.NewTracker(40),
		cancel:  cancel,
	}
}

func (o *Operation) Run() error {
	_, err := tea.NewProgram(o).Run()
	return err
}

func (o *Operation) Init() tea.Cmd {
	return o.listen()
}

func (o *Operation) listen() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-o.sub.C
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(e)
	}
}

func (o *Operation) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		o.tracker.Update(services.Event(msg))
		return o, o.listen()
	case streamClosedMsg:
		return o, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			if o.cancel != nil {
				o.cancel()
			}
			return o, o.listen() // keep draining until the stream closes
		}
	}
	return o, nil
}

func (o *Operation) View() string {
	return styles.TitleStyle.Render(o.title) + "\n" + o.tracker.View() + "\n" +
		styles.MutedStyle.Render("ctrl+c to cancel") + "\n"
}
