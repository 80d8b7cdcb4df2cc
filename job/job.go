package job

// Name is the symbolic identifier of a job variant. Inbound messages
// carry it in wire string form under PropertyKey; Dispatcher converts
// it back to a Name before the pipeline runs.
type Name string

// PropertyKey is the reserved message property that carries the job
// identifier. It is stripped from the properties map before the map
// is exposed to middlewares and the handler.
const PropertyKey = "job"

// Status is a symbolic result state. Handlers may set any value as
// the final state; StatusOK is the designated neutral success value
// used when a handler has nothing more specific to report.
type Status string

// StatusOK is the neutral success state.
const StatusOK Status = "ok"

// Set is the statically declared finite set of jobs a worker handles.
type Set map[Name]struct{}

// NewSet builds a Set from the given names.
func NewSet(names ...Name) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether n is a declared job.
func (s Set) Contains(n Name) bool {
	_, ok := s[n]
	return ok
}

// Names returns the declared job names.
func (s Set) Names() []Name {
	names := make([]Name, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	return names
}
