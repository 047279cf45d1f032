package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"ambiance/internal/logger"
	"ambiance/pkg/config"
)

func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClipLoaderDecodesStereo16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 8000, 16, 2, []int{16384, -16384, 0, 32767, -32768, 8192})

	loader := NewClipLoader(8000, 4, logger.NewNopLogger())
	clip, err := loader.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(clip.Frames) != 3 || clip.SampleRate != 8000 || clip.Name != "stereo.wav" {
		t.Fatalf("clip %q: %d frames at %d Hz", clip.Name, len(clip.Frames), clip.SampleRate)
	}
	if clip.Frames[0] != [2]float32{0.5, -0.5} || clip.Frames[2] != [2]float32{-1, 0.25} {
		t.Errorf("frames = %v", clip.Frames)
	}
}

func TestClipLoaderDuplicatesMono8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 8000, 8, 1, []int{128, 192, 64})

	clip, err := NewClipLoader(8000, 4, nil).LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]float32{{0, 0}, {0.5, 0.5}, {-0.5, -0.5}}
	for i, f := range want {
		if clip.Frames[i] != f {
			t.Errorf("frame %d = %v, want %v", i, clip.Frames[i], f)
		}
	}
}

func TestClipLoaderResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.wav")
	data := make([]int, 2*4000)
	for i := 0; i < 4000; i++ {
		v := int(10000 * math.Sin(2*math.Pi*440*float64(i)/8000))
		data[2*i], data[2*i+1] = v, v
	}
	writeWAV(t, path, 8000, 16, 2, data)

	clip, err := NewClipLoader(16000, 4, nil).LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 16000 {
		t.Fatalf("sample rate = %d", clip.SampleRate)
	}
	if math.Abs(clip.Length()-0.5) > 0.01 {
		t.Errorf("length after resampling = %v, want about 0.5s", clip.Length())
	}
	for i, f := range clip.Frames {
		if math.Abs(float64(f[0])) > 0.5 {
			t.Fatalf("frame %d = %v exceeds source amplitude", i, f)
		}
	}
}

func TestClipLoaderRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("definitely not a riff file"), 0644); err != nil {
		t.Fatal(err)
	}

	loader := NewClipLoader(8000, 4, nil)
	if _, err := loader.LoadFile(junk); !errors.Is(err, ErrInvalidClip) {
		t.Errorf("junk file: err = %v, want ErrInvalidClip", err)
	}
	if _, err := loader.LoadFile(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want not-exist", err)
	}

	zeroRate := filepath.Join(dir, "zero_rate.wav")
	if err := os.WriteFile(zeroRate, wavHeaderBytes(0, 4000, 2, 16, 64), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadFile(zeroRate); !errors.Is(err, ErrInvalidClip) {
		t.Errorf("zero sample rate: err = %v, want ErrInvalidClip", err)
	}
	cat := config.CatalogConfig{Ambiance: []config.ClipConfig{{File: zeroRate}}}
	if got := NewClipLoader(44100, 4, nil).LoadCatalog(cat, dir); len(got.Ambiance) != 0 {
		t.Errorf("zero sample rate entry was loaded")
	}
}

// wavHeaderBytes builds a PCM WAV file by hand so header fields can disagree
// with each other
func wavHeaderBytes(sampleRate, byteRate uint32, channels, bitDepth uint16, dataLen int) []byte {
	var b bytes.Buffer
	le := binary.LittleEndian
	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, channels)
	binary.Write(&b, le, sampleRate)
	binary.Write(&b, le, byteRate)
	binary.Write(&b, le, channels*bitDepth/8)
	binary.Write(&b, le, bitDepth)
	b.WriteString("data")
	binary.Write(&b, le, uint32(dataLen))
	b.Write(make([]byte, dataLen))
	return b.Bytes()
}

func TestClipLoaderCatalog(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "drip.wav"), 8000, 16, 1, []int{0, 1000, 2000, 3000})

	vol := 0.5
	prio := 4
	cat := config.CatalogConfig{
		Ambiance: []config.ClipConfig{
			{Name: "drip", File: "drip.wav", Volume: &vol, Priority: &prio},
			{File: "missing.wav"},
			{Name: "breeze", Synth: config.SynthWind, Duration: 0.5, Seed: 3},
		},
		Music: []config.ClipConfig{
			{Synth: config.SynthDrone, Duration: 1, Seed: 9},
		},
	}

	got := NewClipLoader(8000, 4, nil).LoadCatalog(cat, dir)
	if len(got.Ambiance) != 2 || len(got.Music) != 1 {
		t.Fatalf("loaded %d ambiance and %d music clips, want 2 and 1", len(got.Ambiance), len(got.Music))
	}

	drip := got.Ambiance[0]
	if drip.Clip.Name != "drip" || drip.Volume != 0.5 || drip.Priority != 4 {
		t.Errorf("drip entry = %q %v %v", drip.Clip.Name, drip.Volume, drip.Priority)
	}
	breeze := got.Ambiance[1]
	if breeze.Volume != config.DefaultClipVolume || breeze.Priority != config.DefaultClipPriority {
		t.Errorf("breeze entry defaults = %v %v", breeze.Volume, breeze.Priority)
	}
	if math.Abs(breeze.Clip.Length()-0.5) > 1e-9 {
		t.Errorf("breeze length = %v", breeze.Clip.Length())
	}
}
