package pipeline

import "sync"

// Report collects recoverable problems from a build. It is safe for
// concurrent use; a nil *Report discards everything.
type Report struct {
	mu       sync.Mutex
	warnings []error
	failures []*TransformFailure
}

func NewReport() *Report { return &Report{} }

func (r *Report) AddWarning(err error) {
	if r == nil || err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, err)
}

func (r *Report) AddFailure(f *TransformFailure) {
	if r == nil || f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *Report) Warnings() []error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.warnings...)
}

func (r *Report) Failures() []*TransformFailure {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TransformFailure(nil), r.failures...)
}

// All returns warnings followed by transform failures.
func (r *Report) All() []error {
	res := r.Warnings()
	for _, f := range r.Failures() {
		res = append(res, f)
	}
	return res
}
