package logic

import "time"

// Pulser sequences a fixed train of on/off pulses on the notifier line. It
// is tick-driven: the poll loop feeds it time and it reports level changes,
// so a pulse train occupies the cycle without ever blocking the scheduler.
type Pulser struct {
	onDur     time.Duration
	offDur    time.Duration
	active    bool
	on        bool
	remaining int
	deadline  time.Time
}

// NewPulser creates a pulser with the given per-pulse timings.
func NewPulser(on, off time.Duration) *Pulser {
	return &Pulser{onDur: on, offDur: off}
}

// Start begins a train of count pulses at the given time. It returns true
// when the output should be driven on immediately. A zero count completes
// at once with no output activity.
func (p *Pulser) Start(count int, now time.Time) bool {
	if count <= 0 {
		p.active = false
		p.on = false
		p.remaining = 0
		return false
	}
	p.active = true
	p.remaining = count
	p.on = true
	p.deadline = now.Add(p.onDur)
	return true
}

// Tick advances the train to the given time. It returns whether the output
// level changed and the level it should now be. Each phase deadline is set
// from the tick that observed the previous phase complete, so the train
// never drifts relative to the scheduler.
func (p *Pulser) Tick(now time.Time) (changed bool, on bool) {
	if !p.active || now.Before(p.deadline) {
		return false, p.on
	}
	if p.on {
		p.on = false
		p.remaining--
		p.deadline = now.Add(p.offDur)
		return true, false
	}
	// Off period elapsed. The trailing pause after the final pulse is part
	// of the train.
	if p.remaining == 0 {
		p.active = false
		return false, false
	}
	p.on = true
	p.deadline = now.Add(p.onDur)
	return true, true
}

// Done reports whether the train has finished (or never started).
func (p *Pulser) Done() bool {
	return !p.active
}

// Stop aborts the train, reporting whether the output was left on.
func (p *Pulser) Stop() (wasOn bool) {
	wasOn = p.on
	p.active = false
	p.on = false
	p.remaining = 0
	return wasOn
}
