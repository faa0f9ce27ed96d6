package stage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Virtual/system ports that are never auto-connected.
var midiExcludedPatterns = []string{"Midi Through", "Through Port", "Dummy"}

const midiRescanInterval = 1000 * time.Millisecond

// MIDIWatcher monitors available MIDI inputs and keeps a connection to the
// first usable device. Hot-plug and hot-unplug are handled transparently;
// NoteOn/NoteOff drive the same voice path as the keyboard, with pitches
// folded onto the key alphabet so MIDI reaches the greek half of the keymap.
type MIDIWatcher struct {
	mu           sync.Mutex
	drv          *rtmididrv.Driver
	inPort       drivers.In
	stopFn       func()
	connected    bool
	selectedName string
	lastRescanAt time.Time

	engine *Engine
	onHit  func(key string)
}

// NewMIDIWatcher initialises the rtmidi driver. onHit (optional) fires per
// NoteOn so the visual side can react. Call Close when done.
func NewMIDIWatcher(engine *Engine, onHit func(key string)) (*MIDIWatcher, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &MIDIWatcher{drv: drv, engine: engine, onHit: onHit}, nil
}

// Close shuts down the active connection and the driver.
func (m *MIDIWatcher) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeConn()
	m.drv.Close()
}

// Tick should be called on a regular interval from the main loop. It scans
// for devices, auto-connects, and detects disappearances.
func (m *MIDIWatcher) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !m.lastRescanAt.IsZero() && now.Sub(m.lastRescanAt) < midiRescanInterval {
		return
	}
	m.lastRescanAt = now

	inputs := m.listInputs()

	if m.connected {
		for _, n := range inputs {
			if n == m.selectedName {
				return
			}
		}
		// Device disappeared; release every sounding voice immediately.
		logger.Warn("midi: device disappeared", "device", m.selectedName)
		m.closeConn()
		m.lastRescanAt = time.Time{}
		go m.engine.ClearAllNotes()
		return
	}

	if len(inputs) == 0 {
		return
	}
	if err := m.openByName(inputs[0]); err != nil {
		logger.Error("midi: connect failed", "device", inputs[0], "err", err)
	}
}

func (m *MIDIWatcher) listInputs() []string {
	ins, err := m.drv.Ins()
	if err != nil {
		logger.Error("midi: list inputs failed", "err", err)
		return nil
	}
	var names []string
	for _, in := range ins {
		name := in.String()
		excluded := false
		for _, pat := range midiExcludedPatterns {
			if containsCI(name, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			names = append(names, name)
		}
	}
	return names
}

func (m *MIDIWatcher) closeConn() {
	if m.stopFn != nil {
		m.stopFn()
		m.stopFn = nil
	}
	if m.inPort != nil {
		_ = m.inPort.Close()
		m.inPort = nil
	}
	m.connected = false
	m.selectedName = ""
}

func (m *MIDIWatcher) openByName(name string) error {
	ins, err := m.drv.Ins()
	if err != nil {
		return err
	}
	var found drivers.In
	for _, in := range ins {
		if in.String() == name {
			found = in
			break
		}
	}
	if found == nil {
		return fmt.Errorf("input %q not found", name)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}

	stop, err := midi.ListenTo(found, func(msg midi.Message, _ int32) {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			kn := midiKeyName(int(key))
			m.engine.PlayNote(kn)
			if m.onHit != nil {
				m.onHit(kn)
			}
		} else if msg.GetNoteEnd(&ch, &key) {
			m.engine.StopNote(midiKeyName(int(key)))
		}
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", name, "err", listenErr)
		// Must not call closeConn from within the listener goroutine, so
		// we dispatch to a new goroutine and re-acquire the mutex.
		go func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.connected && m.selectedName == name {
				m.closeConn()
				m.lastRescanAt = time.Time{}
				go m.engine.ClearAllNotes()
			}
		}()
	}))
	if err != nil {
		_ = found.Close()
		return fmt.Errorf("listen %q: %w", name, err)
	}

	m.inPort = found
	m.stopFn = stop
	m.connected = true
	m.selectedName = name
	logger.Info("midi: connected", "device", name)
	return nil
}

// midiKeyName folds a MIDI pitch onto the key alphabet.
func midiKeyName(pitch int) string {
	return keyAlphabet[pitch%len(keyAlphabet)]
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
