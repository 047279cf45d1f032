package engine

// Clip is decoded stereo PCM ready for mixing. Clips are compared by pointer:
// two entries refer to the same clip only if they hold the same *Clip.
type Clip struct {
	Name       string
	Frames     [][2]float32
	SampleRate int
}

// NewClip creates a clip from stereo frames at the given sample rate
func NewClip(name string, frames [][2]float32, sampleRate int) *Clip {
	return &Clip{
		Name:       name,
		Frames:     frames,
		SampleRate: sampleRate,
	}
}

// Length returns the clip duration in seconds
func (c *Clip) Length() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Frames)) / float64(c.SampleRate)
}

// ClipEntry is one catalog item: a clip plus its playback metadata
type ClipEntry struct {
	Clip     *Clip
	Volume   float64 // multiplier in [0, 1.2]
	Priority int     // selection weight, >= 0
}

// Catalog is the fully populated set of clips handed to the generator at startup
type Catalog struct {
	Ambiance []*ClipEntry
	Music    []*ClipEntry
}

// Channel is an output slot that plays one clip at a time.
// Volume is linear; Elapsed and Length are in seconds.
type Channel interface {
	Load(clip *Clip)
	Play()
	Stop()
	SetVolume(volume float64)
	Volume() float64
	Elapsed() float64
	Length() float64
	Clip() *Clip
}
