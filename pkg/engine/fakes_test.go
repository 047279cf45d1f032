package engine

// fakeChannel is a Channel whose clock is driven by the test
type fakeChannel struct {
	clip    *Clip
	playing bool
	volume  float64
	elapsed float64
	loads   int
	stops   int
	history []float64 // every volume written, in order
}

func (c *fakeChannel) Load(clip *Clip) {
	c.clip = clip
	c.elapsed = 0
	c.playing = false
	c.loads++
}

func (c *fakeChannel) Play() {
	if c.clip != nil {
		c.playing = true
	}
}

func (c *fakeChannel) Stop() {
	c.playing = false
	c.elapsed = 0
	c.stops++
}

func (c *fakeChannel) SetVolume(v float64) {
	c.volume = v
	c.history = append(c.history, v)
}

func (c *fakeChannel) Volume() float64  { return c.volume }
func (c *fakeChannel) Elapsed() float64 { return c.elapsed }
func (c *fakeChannel) Length() float64  { return c.clip.Length() }
func (c *fakeChannel) Clip() *Clip      { return c.clip }

// advance moves the playback clock, stopping at the end of the clip
func (c *fakeChannel) advance(dt float64) {
	if !c.playing || c.clip == nil {
		return
	}
	c.elapsed += dt
	if l := c.clip.Length(); c.elapsed >= l {
		c.elapsed = l
		c.playing = false
	}
}

// testClip returns a silent clip of the given length at 100 Hz
func testClip(name string, seconds float64) *Clip {
	return NewClip(name, make([][2]float32, int(seconds*100)), 100)
}

func testEntry(name string, seconds float64, priority int) *ClipEntry {
	return &ClipEntry{Clip: testClip(name, seconds), Volume: 1, Priority: priority}
}
