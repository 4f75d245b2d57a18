package correspondence

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"slicealign/internal/models"
	"slicealign/pkg/colors"
	"slicealign/pkg/registration"
)

// EventType identifies session changes.
type EventType int

const (
	EventSlicesChanged EventType = iota
	EventPointsChanged
	EventAlignmentComputed
	EventReset
)

// Event is delivered to listeners after a change has been committed.
type Event struct {
	Type EventType

	// Slice is the slice an edit touched, or -1 for stack-wide changes
	Slice int

	// Indices are the correspondence (or slice) indices affected
	Indices []int
}

// Listener is called when an event occurs.
type Listener func(Event)

// Session is one editing session over a slice stack: the point set, the
// parallel colour list and the per-slice metadata, guarded by a single lock.
// Every exported method is atomic; readers never observe a point appended
// without its colour.
type Session struct {
	mu sync.RWMutex

	meta     []sliceMeta
	points   *PointSet
	colors   []colors.Color
	computed bool

	assigner  *colors.Assigner
	estimator registration.Estimator
	radius    float64
	logger    *log.Logger

	listeners map[EventType][]Listener
}

type sliceMeta struct {
	name       string
	resolution models.Resolution
	alignment  models.Alignment
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for debug output of mutations.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithAssigner sets the colour generator.
func WithAssigner(a *colors.Assigner) Option {
	return func(s *Session) { s.assigner = a }
}

// WithEstimator sets the rigid fit used by Compute.
func WithEstimator(e registration.Estimator) Option {
	return func(s *Session) { s.estimator = e }
}

// WithPickRadius sets the hit radius, in pixels, used by Pick.
func WithPickRadius(r float64) Option {
	return func(s *Session) { s.radius = r }
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		points:    NewPointSet(0),
		assigner:  colors.NewAssigner(colors.DefaultOptions()),
		estimator: registration.DefaultEstimator(),
		logger:    log.New(io.Discard),
		listeners: make(map[EventType][]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// On registers a listener for the specified event type.
func (s *Session) On(event EventType, listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// emit must be called without holding the lock.
func (s *Session) emit(e Event) {
	s.mu.RLock()
	listeners := s.listeners[e.Type]
	s.mu.RUnlock()

	for _, l := range listeners {
		l(e)
	}
}

// AddSlice appends an imported slice with no points and identity alignment
// and returns its index.
func (s *Session) AddSlice(name string, res models.Resolution) int {
	s.mu.Lock()
	k := s.points.AddSlice()
	s.meta = append(s.meta, sliceMeta{name: name, resolution: res, alignment: models.Identity()})
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("slice added", "slice", k, "name", name, "width", res.Width, "height", res.Height)
	s.emit(Event{Type: EventSlicesChanged, Slice: k, Indices: []int{k}})
	return k
}

// RemoveSlices drops the given slices. Colours past the new maximum point
// count are trimmed so each remaining colour still labels a landmark.
func (s *Session) RemoveSlices(indices []int) error {
	s.mu.Lock()
	n := s.points.SliceCount()
	for _, k := range indices {
		if k < 0 || k >= n {
			s.mu.Unlock()
			return sliceError(k, n)
		}
	}
	order := descending(indices)
	for _, k := range order {
		// indices were validated above
		_ = s.points.RemoveSlice(k)
		s.meta = append(s.meta[:k], s.meta[k+1:]...)
	}
	if max := s.points.MaxCount(); len(s.colors) > max {
		s.colors = s.colors[:max]
	}
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("slices removed", "slices", order)
	s.emit(Event{Type: EventSlicesChanged, Slice: -1, Indices: order})
	return nil
}

// Reset removes every slice, point and colour.
func (s *Session) Reset() {
	s.mu.Lock()
	s.meta = nil
	s.points = NewPointSet(0)
	s.colors = nil
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("session reset")
	s.emit(Event{Type: EventReset, Slice: -1})
}

// Add appends p to slice k and returns the correspondence index it occupies.
// When the slice's new count exceeds every other slice, a new correspondence
// is opened and a colour is generated for it.
func (s *Session) Add(k int, p models.Point) (int, error) {
	s.mu.Lock()
	if err := s.points.checkSlice(k); err != nil {
		s.mu.Unlock()
		return -1, err
	}
	idx := s.points.PointCount(k)
	opens := idx+1 > s.points.MaxCount()
	_ = s.points.AppendPoint(k, p)
	if opens {
		s.colors = append(s.colors, s.assigner.Next(s.colors))
	}
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("point added", "slice", k, "index", idx, "x", p.X, "y", p.Y, "new", opens)
	s.emit(Event{Type: EventPointsChanged, Slice: k, Indices: []int{idx}})
	return idx, nil
}

// Move replaces point i of slice k. Other slices are not affected.
func (s *Session) Move(k, i int, p models.Point) error {
	s.mu.Lock()
	if err := s.points.SetPoint(k, i, p); err != nil {
		s.mu.Unlock()
		return err
	}
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("point moved", "slice", k, "index", i, "x", p.X, "y", p.Y)
	s.emit(Event{Type: EventPointsChanged, Slice: k, Indices: []int{i}})
	return nil
}

// RemoveSelected removes the given correspondence indices from every slice
// and from the colour list. Either all indices are removed or, if any is out
// of range, none is.
func (s *Session) RemoveSelected(indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	s.mu.Lock()
	max := s.points.MaxCount()
	for _, i := range indices {
		if i < 0 || i >= max {
			s.mu.Unlock()
			return correspondenceError(i, max)
		}
	}
	order := descending(indices)
	for _, i := range order {
		_ = s.points.RemoveIndex(i)
		if i < len(s.colors) {
			s.colors = append(s.colors[:i], s.colors[i+1:]...)
		}
	}
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("correspondences removed", "indices", order)
	s.emit(Event{Type: EventPointsChanged, Slice: -1, Indices: order})
	return nil
}

// RemoveAll clears the points of every slice and the colour list.
func (s *Session) RemoveAll() {
	s.mu.Lock()
	s.points.RemoveAll()
	s.colors = nil
	s.computed = false
	s.mu.Unlock()

	s.logger.Debug("all points removed")
	s.emit(Event{Type: EventPointsChanged, Slice: -1})
}

// Compute runs the alignment chain over the current stack and stores the
// result on each slice. On a precondition failure (too few slices, unequal
// point counts) nothing is modified. Per-pair failures still store the chain,
// with identity for the failed slices, and are returned as a
// *registration.ChainError.
func (s *Session) Compute() ([]models.Alignment, error) {
	s.mu.Lock()
	slices := s.slicesLocked()
	alignments, err := s.estimator.ComputeChain(slices)
	if alignments == nil {
		s.mu.Unlock()
		s.logger.Debug("alignment rejected", "err", err)
		return nil, err
	}
	for k, a := range alignments {
		s.meta[k].alignment = a
	}
	s.computed = err == nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("alignment incomplete", "failed", registration.FailedSlices(err))
	} else {
		s.logger.Debug("alignment computed", "slices", len(alignments))
	}
	s.emit(Event{Type: EventAlignmentComputed, Slice: -1})
	return alignments, err
}

// Transforms returns the detailed fit for every slice of the current stack
// without storing anything.
func (s *Session) Transforms() ([]registration.Transform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.estimator.ComputeTransforms(s.slicesLocked())
}

// Computed reports whether the stored alignments match the current points.
func (s *Session) Computed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.computed
}

// SliceCount returns the number of slices.
func (s *Session) SliceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points.SliceCount()
}

// PointCount returns the number of points on slice k.
func (s *Session) PointCount(k int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points.PointCount(k)
}

// MaxCount returns the number of open correspondences.
func (s *Session) MaxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points.MaxCount()
}

// PointAt returns point i of slice k.
func (s *Session) PointAt(k, i int) (models.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points.PointAt(k, i)
}

// Colors returns a copy of the colour list.
func (s *Session) Colors() []colors.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]colors.Color, len(s.colors))
	copy(out, s.colors)
	return out
}

// Slices returns a deep copy of the stack.
func (s *Session) Slices() []models.Slice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slicesLocked()
}

func (s *Session) slicesLocked() []models.Slice {
	out := make([]models.Slice, len(s.meta))
	for k, m := range s.meta {
		out[k] = models.Slice{
			Name:       m.name,
			Resolution: m.resolution,
			Points:     s.points.Points(k),
			Alignment:  m.alignment,
		}
	}
	return out
}

// Pick returns the correspondence index of the landmark of slice k nearest to
// at, within the session's pick radius.
func (s *Session) Pick(k int, at models.Point) (int, bool) {
	s.mu.RLock()
	pts := s.points.Points(k)
	radius := s.radius
	s.mu.RUnlock()
	return NewPicker(pts, radius).Pick(at)
}

// Row is one correspondence index across the stack. Points[k] is nil where
// slice k has no point at this index yet.
type Row struct {
	Index  int
	Color  colors.Color
	Points []*models.Point
}

// Rows returns the correspondence table.
func (s *Session) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := s.points.MaxCount()
	rows := make([]Row, max)
	for i := 0; i < max; i++ {
		row := Row{Index: i, Points: make([]*models.Point, s.points.SliceCount())}
		if i < len(s.colors) {
			row.Color = s.colors[i]
		}
		for k := range row.Points {
			if p, ok := s.points.PointAt(k, i); ok {
				row.Points[k] = &p
			}
		}
		rows[i] = row
	}
	return rows
}

// Summary is the per-slice overview shown next to a computed chain.
type Summary struct {
	Name      string
	Points    int
	Alignment models.Alignment
}

// Summaries returns one summary per slice.
func (s *Session) Summaries() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, len(s.meta))
	for k, m := range s.meta {
		out[k] = Summary{Name: m.name, Points: s.points.PointCount(k), Alignment: m.alignment}
	}
	return out
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Slices   []models.Slice `json:"slices"`
	Colors   []colors.Color `json:"colors"`
	Computed bool           `json:"computed"`
}

// Snapshot copies the session state under one read lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs := make([]colors.Color, len(s.colors))
	copy(cs, s.colors)
	return Snapshot{Slices: s.slicesLocked(), Colors: cs, Computed: s.computed}
}

// Restore replaces the session state with snap. Missing colours are
// generated; extra colours are dropped. An unparsable colour rejects the
// snapshot and leaves the session unchanged.
func (s *Session) Restore(snap Snapshot) error {
	for i, c := range snap.Colors {
		if _, err := colors.Parse(string(c)); err != nil {
			return fmt.Errorf("colour %d: %w", i, err)
		}
	}

	ps := NewPointSet(0)
	meta := make([]sliceMeta, len(snap.Slices))
	for k, sl := range snap.Slices {
		ps.AddSlice()
		for _, p := range sl.Points {
			_ = ps.AppendPoint(k, p)
		}
		meta[k] = sliceMeta{name: sl.Name, resolution: sl.Resolution, alignment: sl.Alignment}
	}

	s.mu.Lock()
	max := ps.MaxCount()
	cs := make([]colors.Color, 0, max)
	for _, c := range snap.Colors {
		if len(cs) == max {
			break
		}
		cs = append(cs, c)
	}
	for len(cs) < max {
		cs = append(cs, s.assigner.Next(cs))
	}
	s.meta = meta
	s.points = ps
	s.colors = cs
	s.computed = snap.Computed && ps.Aligned()
	s.mu.Unlock()

	s.logger.Debug("session restored", "slices", len(meta), "correspondences", max)
	s.emit(Event{Type: EventSlicesChanged, Slice: -1})
	return nil
}

// descending returns the distinct values of indices, largest first.
func descending(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
