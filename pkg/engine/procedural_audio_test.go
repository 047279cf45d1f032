package engine

import (
	"reflect"
	"testing"

	"ambiance/pkg/config"
)

func TestProceduralAudioKinds(t *testing.T) {
	pag := NewProceduralAudioGenerator(8000)
	for _, kind := range []string{config.SynthAmbient, config.SynthWind, config.SynthWhisper, config.SynthDrone} {
		t.Run(kind, func(t *testing.T) {
			clip, err := pag.Generate(kind, kind, 1.5, 21)
			if err != nil {
				t.Fatal(err)
			}
			if len(clip.Frames) != 12000 || clip.Length() != 1.5 {
				t.Fatalf("%d frames, length %v", len(clip.Frames), clip.Length())
			}

			peak := float32(0)
			for _, f := range clip.Frames {
				for _, s := range f {
					if s > 1 || s < -1 {
						t.Fatalf("sample %v outside [-1,1]", s)
					}
					if s > peak {
						peak = s
					} else if -s > peak {
						peak = -s
					}
				}
			}
			if peak < 0.05 {
				t.Errorf("peak %v, clip is effectively silent", peak)
			}
		})
	}
}

func TestProceduralAudioIsDeterministic(t *testing.T) {
	pag := NewProceduralAudioGenerator(4000)
	a, err := pag.Generate("a", config.SynthWhisper, 0.5, 8)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := pag.Generate("b", config.SynthWhisper, 0.5, 8)
	c, _ := pag.Generate("c", config.SynthWhisper, 0.5, 9)

	if !reflect.DeepEqual(a.Frames, b.Frames) {
		t.Error("same seed rendered different audio")
	}
	if reflect.DeepEqual(a.Frames, c.Frames) {
		t.Error("different seeds rendered identical audio")
	}
}

func TestProceduralAudioRejectsBadInput(t *testing.T) {
	pag := NewProceduralAudioGenerator(8000)
	if _, err := pag.Generate("x", "thunder", 1, 1); err == nil {
		t.Error("unknown synth accepted")
	}
	if _, err := pag.Generate("x", config.SynthWind, 0, 1); err == nil {
		t.Error("zero duration accepted")
	}
}

func TestNormalizeAudio(t *testing.T) {
	loud := []float32{2, -4}
	quiet := []float32{0.01, -0.02}
	normalizeAudio(loud)
	normalizeAudio(quiet)

	if loud[0] != 0.5 || loud[1] != -1 {
		t.Errorf("loud = %v", loud)
	}
	if quiet[1] < -0.7001 || quiet[1] > -0.6999 {
		t.Errorf("quiet = %v, want peak boosted to 0.7", quiet)
	}

	silent := []float32{0, 0}
	normalizeAudio(silent)
	if silent[0] != 0 {
		t.Error("silence changed")
	}
}
