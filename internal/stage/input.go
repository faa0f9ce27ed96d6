package stage

import (
	"unicode"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Controls binds the window's key events to the instrument. Press starts a
// voice and spawns entities; release starts that voice's release. Everything
// else is mode switching.
type Controls struct {
	engine   *Engine
	seq      *Sequencer
	entities *EntitySystem
	scene    *Scene

	style   BeatStyle
	variant int
	bpm     int
	beating bool
}

func NewControls(engine *Engine, seq *Sequencer, entities *EntitySystem, scene *Scene) *Controls {
	return &Controls{
		engine:   engine,
		seq:      seq,
		entities: entities,
		scene:    scene,
		style:    StyleDNB,
		bpm:      DefaultBPM,
	}
}

// Install registers the key callback on the window.
func (c *Controls) Install(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			c.keyDown(w, key, scancode)
		case glfw.Release:
			c.keyUp(key, scancode)
		}
	})
}

func (c *Controls) keyDown(w *glfw.Window, key glfw.Key, scancode int) {
	if name, ok := noteKey(key, scancode); ok {
		c.engine.PlayNote(name)
		c.entities.AddShapeAndFriends(name)
		c.scene.Pulse()
		return
	}
	if key >= glfw.Key1 && key <= glfw.Key8 {
		c.engine.SetPreset(PresetID(key - glfw.Key1))
		return
	}

	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)

	case glfw.KeySpace:
		c.toggleBeats()

	case glfw.KeyTab:
		c.style = c.style.Next()
		if c.beating {
			c.seq.Start(c.bpm, c.style, c.variant)
		}
		logger.Info("controls: beat style", "style", c.style.String())

	case glfw.KeyGraveAccent:
		c.variant = (c.variant + 1) % VariantCount(c.style)
		if c.beating {
			c.seq.Start(c.bpm, c.style, c.variant)
		}

	case glfw.KeyLeftBracket:
		c.nudgeBPM(-BPMNudge)

	case glfw.KeyRightBracket:
		c.nudgeBPM(+BPMNudge)

	case glfw.KeyBackspace:
		c.engine.ClearAllNotes()
		c.engine.RegenerateKeymap()
		logger.Info("controls: cleared voices, reshuffled keymap")
	}
}

func (c *Controls) keyUp(key glfw.Key, scancode int) {
	if name, ok := noteKey(key, scancode); ok {
		c.engine.StopNote(name)
	}
}

func (c *Controls) toggleBeats() {
	if c.beating {
		c.seq.Stop()
		c.beating = false
	} else {
		c.seq.Start(c.bpm, c.style, c.variant)
		c.beating = true
	}
	c.scene.SetBeating(c.beating)
	logger.Info("controls: beats", "running", c.beating, "bpm", c.bpm)
}

// nudgeBPM restarts the sequencer at the new tempo; period changes only take
// effect through Start.
func (c *Controls) nudgeBPM(delta int) {
	c.bpm = clamp(c.bpm+delta, MinBPM, MaxBPM)
	if c.beating {
		c.seq.Start(c.bpm, c.style, c.variant)
	}
	logger.Info("controls: bpm", "bpm", c.bpm)
}

// noteKey resolves a pressed key to its keymap name. The active layout's
// own character wins, so a greek layout reaches the greek half of the
// alphabet; keys the layout cannot name fall back to their US positions.
func noteKey(key glfw.Key, scancode int) (string, bool) {
	if name, ok := noteKeyFromChar(glfw.GetKeyName(key, scancode)); ok {
		return name, true
	}
	return latinKeyName(key)
}

// noteKeyFromChar accepts a layout-reported key character when it is a
// single letter of the key alphabet. Final sigma folds onto sigma, matching
// the keymap.
func noteKeyFromChar(name string) (string, bool) {
	runes := []rune(name)
	if len(runes) != 1 {
		return "", false
	}
	ch := unicode.ToLower(runes[0])
	if ch == 'ς' {
		ch = 'σ'
	}
	lower := string(ch)
	for _, k := range keyAlphabet {
		if k == lower {
			return lower, true
		}
	}
	return "", false
}

// latinKeyName maps a letter key to its keymap name ("a".."z").
func latinKeyName(key glfw.Key) (string, bool) {
	if key >= glfw.KeyA && key <= glfw.KeyZ {
		return string(rune('a' + (key - glfw.KeyA))), true
	}
	return "", false
}
