package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// promptMsg asks the model to show a y/N question and answer on reply.
type promptMsg struct {
	question string
	reply    chan<- bool
}

// Prompter implements controller.Confirmer on top of a running program.
// Confirm is called from command goroutines, never from Update, and blocks
// until the user answers or the prompter is closed.
type Prompter struct {
	mu   sync.Mutex
	send func(tea.Msg)

	done      chan struct{}
	closeOnce sync.Once
}

// NewPrompter returns a prompter that declines everything until attached.
func NewPrompter() *Prompter {
	return &Prompter{done: make(chan struct{})}
}

// Attach sets the function used to deliver prompts, normally Program.Send.
func (p *Prompter) Attach(send func(tea.Msg)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send = send
}

// Close releases pending and future Confirm calls with a "no".
func (p *Prompter) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Confirm shows question and waits for the answer.
func (p *Prompter) Confirm(question string) bool {
	p.mu.Lock()
	send := p.send
	p.mu.Unlock()
	if send == nil {
		return false
	}

	select {
	case <-p.done:
		return false
	default:
	}

	reply := make(chan bool, 1)
	send(promptMsg{question: question, reply: reply})

	select {
	case ok := <-reply:
		return ok
	case <-p.done:
		return false
	}
}
