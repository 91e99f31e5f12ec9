package clockpresenter

import (
	"strings"

	"github.com/park285/cheese-clock/pkg/clockdto"
)

// Presenter delivers formatted text without coupling to the command layer.
type Presenter struct {
	format      *Formatter
	sendMessage func(message string) error
}

func NewPresenter(format *Formatter, sendMessage func(message string) error) *Presenter {
	if format == nil {
		format = NewFormatter(nil)
	}
	return &Presenter{format: format, sendMessage: sendMessage}
}

func (p *Presenter) send(message string) error {
	if p == nil || p.sendMessage == nil {
		return nil
	}
	if strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(message)
}

func (p *Presenter) Status(state *clockdto.SessionState) error {
	return p.send(p.format.Status(state))
}

func (p *Presenter) Press(sum *clockdto.PressSummary) error {
	return p.send(p.format.Press(sum))
}

// Signal reports a timer-driven signal; quiet kinds send nothing.
func (p *Presenter) Signal(sig clockdto.SignalInfo) error {
	return p.send(p.format.Signal(sig))
}

func (p *Presenter) History(records []clockdto.GameRecord) error {
	return p.send(p.format.History(records))
}

func (p *Presenter) Events(events []clockdto.FeedEvent) error {
	return p.send(p.format.Events(events))
}

func (p *Presenter) Error(err clockdto.DomainError) error {
	return p.send(p.format.Error(err))
}

func (p *Presenter) Text(key string, data map[string]any) error {
	return p.send(p.format.Text(key, data))
}
