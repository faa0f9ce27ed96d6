package stage

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

var errNoSpeechBinary = errors.New("no system speech binary found")

func sleepQuantum() { time.Sleep(10 * time.Millisecond) }

// SpeechProvider selects an output path for spoken text.
type SpeechProvider int

const (
	ProviderCloud SpeechProvider = iota
	ProviderSystem
	ProviderSilent
)

// SpeechRequest carries one utterance.
type SpeechRequest struct {
	Text     string
	Provider SpeechProvider
	Voice    string
	Volume   float64
	Rate     float64 // system speech rate multiplier; 0 = default
	Pitch    float64 // system speech pitch; 0 = default
}

// CloudSynth turns text into raw s16le mono PCM at the returned sample
// rate. Implementations may take arbitrarily long; the router never waits
// on them from a caller's goroutine.
type CloudSynth interface {
	Synthesize(ctx context.Context, text, persona, voice string) (pcm []byte, sampleRate int, err error)
}

// SystemSpeaker submits text to the host speech facility, cancelling any
// in-flight utterance first. Fire-and-forget.
type SystemSpeaker interface {
	Speak(req SpeechRequest) error
	Cancel()
}

// SpeechRouter picks among cloud synthesis, system speech, and silence.
// Every failure degrades one level down; nothing propagates to the caller.
type SpeechRouter struct {
	engine *Engine
	cloud  CloudSynth
	system SystemSpeaker
}

func NewSpeechRouter(engine *Engine, cloud CloudSynth, system SystemSpeaker) *SpeechRouter {
	return &SpeechRouter{engine: engine, cloud: cloud, system: system}
}

// Speak never blocks and never returns an error. Overlapping calls are
// allowed; cloud playback may overlap, system speech replaces itself.
func (r *SpeechRouter) Speak(req SpeechRequest) {
	if r == nil || req.Text == "" || req.Provider == ProviderSilent {
		return
	}
	go r.speak(req)
}

func (r *SpeechRouter) speak(req SpeechRequest) {
	if req.Provider == ProviderCloud && r.cloud != nil {
		pcm, rate, err := r.cloud.Synthesize(context.Background(), req.Text, CloudPersona, req.Voice)
		if err == nil {
			if r.playPCM(pcm, rate, req.Volume) {
				return
			}
			logger.Warn("speech: cloud payload unplayable, falling back", "bytes", len(pcm))
		} else {
			logger.Warn("speech: cloud synth failed, falling back", "err", err)
		}
	}

	if r.system != nil {
		r.system.Cancel()
		if err := r.system.Speak(req); err != nil {
			logger.Warn("speech: system speech failed", "err", err)
		}
		return
	}
	logger.Debug("speech: no output path, dropping utterance")
}

// playPCM decodes and plays a cloud payload on the voice bus. Returns false
// when the payload or the engine cannot carry it.
func (r *SpeechRouter) playPCM(pcm []byte, rate int, volume float64) bool {
	if len(pcm) < 2 || r.engine == nil || !r.engine.ok() {
		return false
	}
	mono := DecodePCM16LE(pcm)
	buf := resampleToStereoF32(mono, rate)
	if len(buf) == 0 {
		return false
	}
	if volume <= 0 {
		volume = SpeechVolume
	}
	player := r.engine.device.NewPlayer(&sampleReader{data: buf})
	player.SetVolume(clampF(volume, 0, 1))
	player.Play()
	go func() {
		for player.IsPlaying() {
			sleepQuantum()
		}
		_ = player.Close()
	}()
	return true
}

// execSpeaker shells out to the host TTS command: say on macOS, espeak-ng
// or spd-say elsewhere. First binary found wins; none found means silent
// degradation.
type execSpeaker struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewSystemSpeaker() SystemSpeaker {
	return &execSpeaker{}
}

func (s *execSpeaker) Speak(req SpeechRequest) error {
	path, args := speechCommand(req)
	if path == "" {
		return errNoSpeechBinary
	}
	cmd := exec.Command(path, append(args, req.Text)...)
	if err := cmd.Start(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
	go func() {
		_ = cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()
	return nil
}

func (s *execSpeaker) Cancel() {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// speechCommand resolves the host TTS binary and flag set for req.
func speechCommand(req SpeechRequest) (string, []string) {
	if path, err := exec.LookPath("say"); err == nil {
		var args []string
		if req.Voice != "" {
			args = append(args, "-v", req.Voice)
		}
		if req.Rate > 0 {
			args = append(args, "-r", strconv.Itoa(int(175*req.Rate)))
		}
		return path, args
	}
	if path, err := exec.LookPath("espeak-ng"); err == nil {
		var args []string
		if req.Rate > 0 {
			args = append(args, "-s", strconv.Itoa(int(160*req.Rate)))
		}
		if req.Pitch > 0 {
			args = append(args, "-p", strconv.Itoa(clamp(int(req.Pitch*50), 0, 99)))
		}
		return path, args
	}
	if path, err := exec.LookPath("spd-say"); err == nil {
		return path, []string{"--wait=false"}
	}
	return "", nil
}
