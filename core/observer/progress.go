package observer

// Ticker is advanced once per mapped point; ui.ProgressBar satisfies it
type Ticker interface {
	Increment()
	Done()
}

// Progress advances a Ticker after each real point
type Progress struct {
	Nop
	ticker Ticker
}

// NewProgress wraps t
func NewProgress(t Ticker) *Progress {
	return &Progress{ticker: t}
}

func (p *Progress) TimeStepEnd(point int, balance float64) error {
	if point != ConstantPoint {
		p.ticker.Increment()
	}
	return nil
}

func (p *Progress) End() error {
	p.ticker.Done()
	return nil
}
