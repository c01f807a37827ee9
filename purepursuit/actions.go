package purepursuit

// TriggeredAction is a periodic side effect run at the top of every engine
// call, in registration order, regardless of path state.
type TriggeredAction interface {
	Tick()
}

// AddTriggeredActions registers triggered actions to run on every call to
// Loop.
func (p *Path) AddTriggeredActions(actions ...TriggeredAction) {
	p.triggered = append(p.triggered, actions...)
}

// RemoveTriggeredAction removes the first registration of the given action,
// reporting whether it was found.
func (p *Path) RemoveTriggeredAction(action TriggeredAction) bool {
	for i, a := range p.triggered {
		if a == action {
			p.triggered = append(p.triggered[:i], p.triggered[i+1:]...)
			return true
		}
	}
	return false
}

// ClearTriggeredActions removes all triggered actions.
func (p *Path) ClearTriggeredActions() {
	p.triggered = nil
}

func (p *Path) tickTriggeredActions() {
	for _, a := range p.triggered {
		a.Tick()
	}
}

// drainInterruptActions runs queued interrupt actions in FIFO order. Actions
// run synchronously and block the tick that drains them.
func (p *Path) drainInterruptActions() {
	for len(p.interruptQueue) > 0 {
		action := p.interruptQueue[0]
		p.interruptQueue = p.interruptQueue[1:]
		action()
	}
}

func (p *Path) enqueueInterruptAction(action func()) {
	if action == nil {
		return
	}
	p.interruptQueue = append(p.interruptQueue, action)
}
