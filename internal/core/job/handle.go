package job

// Handle is the completion token of a scheduled job. The zero Handle is
// already complete.
type Handle struct {
	done <-chan struct{}
}

// Complete blocks until the job and every job it depended on have finished.
func (h Handle) Complete() {
	if h.done != nil {
		<-h.done
	}
}

// IsCompleted reports whether Complete would return immediately.
func (h Handle) IsCompleted() bool {
	if h.done == nil {
		return true
	}
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Combine returns a handle that completes once every h has completed.
func Combine(hs ...Handle) Handle {
	pending := make([]Handle, 0, len(hs))
	for _, h := range hs {
		if !h.IsCompleted() {
			pending = append(pending, h)
		}
	}
	switch len(pending) {
	case 0:
		return Handle{}
	case 1:
		return pending[0]
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, h := range pending {
			h.Complete()
		}
	}()
	return Handle{done: done}
}
