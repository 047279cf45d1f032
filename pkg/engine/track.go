package engine

import (
	"math"
	"math/rand"

	"ambiance/internal/logger"
	"ambiance/internal/util"
)

// TrackState is the lifecycle stage of a track
type TrackState int

const (
	TrackIdle TrackState = iota
	TrackPlaying
	TrackDraining
)

func (s TrackState) String() string {
	switch s {
	case TrackIdle:
		return "idle"
	case TrackPlaying:
		return "playing"
	case TrackDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// TrackTiming controls the gap between consecutive clips on a track
type TrackTiming struct {
	Delay      float64 // mean gap after a clip, seconds
	DelayRange float64 // uniform jitter in [-DelayRange, +DelayRange]
}

// Track plays ambiance clips one after another on its own channel. When a
// clip has played out plus a randomized gap, the track picks the next clip
// from the shared pool and hands the finished one back.
type Track struct {
	index     int
	channel   Channel
	envelope  *Envelope
	pool      *ClipPool
	scheduler *Scheduler
	timing    TrackTiming
	rng       *rand.Rand
	log       *logger.Logger

	entry  *ClipEntry
	volume float64
	dying  bool
	next   *Timer
}

// NewTrack creates an idle track. rng drives the gap jitter and must not be
// shared with other tracks.
func NewTrack(index int, ch Channel, env *Envelope, pool *ClipPool, sched *Scheduler, timing TrackTiming, rng *rand.Rand, log *logger.Logger) *Track {
	return &Track{
		index:     index,
		channel:   ch,
		envelope:  env,
		pool:      pool,
		scheduler: sched,
		timing:    timing,
		rng:       rng,
		log:       log,
		volume:    1,
	}
}

// Index returns the track slot number
func (t *Track) Index() int { return t.index }

// Channel returns the output channel (nil when none was provided)
func (t *Track) Channel() Channel { return t.channel }

// Envelope returns the track's volume envelope
func (t *Track) Envelope() *Envelope { return t.envelope }

// Entry returns the clip entry currently assigned, or nil
func (t *Track) Entry() *ClipEntry { return t.entry }

// NextTransition returns the pending next-clip timer, or nil
func (t *Track) NextTransition() *Timer {
	if t.next.Active() {
		return t.next
	}
	return nil
}

// State reports the lifecycle stage
func (t *Track) State() TrackState {
	switch {
	case t.entry == nil:
		return TrackIdle
	case t.dying:
		return TrackDraining
	default:
		return TrackPlaying
	}
}

// RequestClip selects a clip from the pool and starts it at volume times the
// clip's own multiplier. It returns the clip length, or false when the track
// has no channel or the pool has nothing to offer; the track is then idle.
// A clip already on the track is stopped and released first.
func (t *Track) RequestClip(volume float64) (float64, bool) {
	if t.channel == nil {
		t.log.Warnf("track %d has no output channel, ambiance disabled on this slot", t.index)
		return 0, false
	}
	if t.entry != nil {
		t.Stop()
	}
	return t.start(volume)
}

// Stop cancels the pending transition, silences the channel and returns the
// current clip to the pool at once. There is no fade-out.
func (t *Track) Stop() {
	t.next.Cancel()
	t.next = nil
	if t.channel != nil {
		t.channel.Stop()
	}
	if t.entry != nil {
		t.pool.Release(t.entry.Clip)
		t.entry = nil
	}
	t.dying = false
}

// Update drives the envelope for the current clip
func (t *Track) Update(dt float64) {
	if t.entry == nil || t.channel == nil {
		return
	}
	t.dying = t.envelope.Update(dt, t.channel)
}

// NextDelay returns the wait before the next request for a clip of the given
// length: the length plus the jittered gap, the gap clamped at zero.
func (t *Track) NextDelay(length float64) float64 {
	gap := t.timing.Delay + util.RandomFloat(t.rng, -t.timing.DelayRange, t.timing.DelayRange)
	return length + math.Max(0, gap)
}

func (t *Track) start(volume float64) (float64, bool) {
	entry, ok := t.pool.Select()
	if !ok {
		t.log.Warnf("track %d: no usable ambiance clips available to play", t.index)
		return 0, false
	}
	t.volume = volume
	return t.play(entry), true
}

func (t *Track) play(entry *ClipEntry) float64 {
	t.entry = entry
	t.dying = false

	t.channel.Load(entry.Clip)
	t.channel.SetVolume(0)
	t.envelope.Reset(t.volume * entry.Volume)
	t.channel.Play()

	length := entry.Clip.Length()
	t.next = t.scheduler.After(t.NextDelay(length), t.transition)

	t.log.Debugf("track %d: playing %q (%.2fs, priority %d)", t.index, entry.Clip.Name, length, entry.Priority)
	return length
}

// transition runs when the current clip and its gap are over. The next clip
// is drawn while the finished one is still held, so a track never repeats a
// clip back to back while others are usable. Only when nothing else is
// usable does the finished clip get drawn again.
func (t *Track) transition() {
	t.next = nil
	finished := t.entry
	t.entry = nil
	t.dying = false

	entry, ok := t.pool.Select()
	if finished != nil && !t.pool.Release(finished.Clip) {
		t.log.Debugf("track %d: finished clip %q was not in use", t.index, finished.Clip.Name)
	}
	if !ok {
		entry, ok = t.pool.Select()
	}
	if !ok {
		t.log.Warnf("track %d: no usable ambiance clips available to play", t.index)
		t.channel.Stop()
		return
	}
	t.play(entry)
}
