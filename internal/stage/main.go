package stage

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options configures a desktop session.
type Options struct {
	Seed         uint64 // 0 = derive from clock
	GenAIKey     string // empty = no cloud speech or phrase generation
	EnableMIDI   bool
	SpeechOutput bool
}

// RunDesktop opens the window, brings up audio, and runs the frame loop
// until the window closes. Must be called from the main goroutine.
func RunDesktop(opts Options) error {
	runtime.LockOSThread()

	window, err := initWindow()
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	// Audio. A failed device init degrades to a silent session rather than
	// aborting; every engine operation no-ops without a device.
	engine, err := OpenEngine(seed)
	if err != nil {
		logger.Warn("audio init failed, continuing without sound", "err", err)
		engine = NewEngine(nil, nil, seed)
	}

	// Cloud collaborators. Missing key means both stay nil and the fallback
	// chain carries everything.
	genaiClient, err := NewGenAIClient(context.Background(), opts.GenAIKey)
	if err != nil {
		logger.Warn("genai client init failed, degrading", "err", err)
		genaiClient = nil
	}

	var fetcher PhraseFetcher
	var cloud CloudSynth
	if genaiClient != nil {
		fetcher = genaiClient
		cloud = genaiClient
	}
	pool := NewPhrasePool(fetcher)
	pool.Refresh()

	speech := NewSpeechRouter(engine, cloud, NewSystemSpeaker())

	entities := NewEntitySystem(pool, speech, seed^0xE117)
	entities.SetSpeech(opts.SpeechOutput, ProviderCloud)
	scene := NewScene(seed ^ 0x57A7)

	seq := NewSequencer(engine.TriggerDrum, seed^0xBEA7)
	defer seq.Stop()

	controls := NewControls(engine, seq, entities, scene)
	controls.Install(window)

	var midiWatch *MIDIWatcher
	if opts.EnableMIDI {
		midiWatch, err = NewMIDIWatcher(engine, entities.AddShapeAndFriends)
		if err != nil {
			logger.Warn("midi unavailable", "err", err)
		} else {
			defer midiWatch.Close()
		}
	}

	sweepStop := make(chan struct{})
	go entities.RunSweeper(sweepStop)
	defer close(sweepStop)

	rend, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	// GL state.
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.ClearColor(0.01, 0.01, 0.03, 1.0)

	logger.Info("session start", "seed", seed, "midi", midiWatch != nil)

	var normBuf, glowBuf []float32
	lastStep := -1

	last := glfw.GetTime()
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()
		if midiWatch != nil {
			midiWatch.Tick()
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		wall := time.Now()
		entities.Update(dt, wall)

		// Pulse the scene glow on sequencer step changes.
		if seq.Running() {
			if step := seq.Step(); step != lastStep {
				lastStep = step
				scene.Pulse()
			}
		} else {
			lastStep = -1
		}
		scene.Update(dt)

		normBuf, glowBuf = entities.RenderData(normBuf, glowBuf)
		normBuf, glowBuf = scene.RenderData(normBuf, glowBuf)

		rend.BeginFrame(fbW, fbH)
		rend.DrawGlowSprites(glowBuf, fbW, fbH)
		rend.DrawSprites(normBuf, fbW, fbH)

		drawTextOverlay(rend, entities, fbW, fbH)
		rend.FlushText(fbW, fbH)

		window.SwapBuffers()
	}
	return nil
}

// drawTextOverlay paints glyph characters and phrase fragments at their
// projected screen positions.
func drawTextOverlay(rend *Renderer, entities *EntitySystem, fbW, fbH int) {
	view := viewScale(fbH)
	cx := float32(fbW) * 0.5
	cy := float32(fbH) * 0.5

	for _, g := range entities.Glyphs() {
		if g.Alpha <= 0 {
			continue
		}
		x, y, size := project(&g)
		scale := size / float32(FontCellH)
		rend.DrawChar(g.Char, x*view+cx, y*view+cy, scale, g.Col, float32(g.Alpha))
	}
	for _, f := range entities.Fragments() {
		if f.Alpha <= 0 {
			continue
		}
		x, y, _ := project(&f)
		scale := float32(1.0 + f.Scale)
		sx := x*view + cx - TextWidth(f.Text, scale)*0.5
		rend.DrawString(f.Text, sx, y*view+cy, scale, f.Col, float32(f.Alpha))
	}
}
