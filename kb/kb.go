package kb

import (
	"errors"
	"sync"

	"github.com/signalsfoundry/beamscene/core"
)

// ErrNoScene is returned when no scene has been stored yet.
var ErrNoScene = errors.New("no scene loaded")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventSceneLoaded EventType = iota
)

// Event is emitted to subscribers when the stored scene changes.
type Event struct {
	Type  EventType
	Scene *core.Scene
}

// SceneStore is a thread-safe holder for the current scene. A scene is
// immutable once stored; readers share it without copying.
type SceneStore struct {
	mu      sync.RWMutex
	scene   *core.Scene
	summary core.Summary

	subs []func(Event)
}

// NewSceneStore constructs an empty store.
func NewSceneStore() *SceneStore {
	return &SceneStore{}
}

// SetScene stores scene, computes its summary and notifies subscribers.
func (s *SceneStore) SetScene(scene *core.Scene) error {
	if scene == nil {
		return errors.New("scene is nil")
	}
	summary := core.Summarize(scene, true)

	s.mu.Lock()
	s.scene = scene
	s.summary = summary
	subs := append([]func(Event){}, s.subs...)
	s.mu.Unlock()

	ev := Event{Type: EventSceneLoaded, Scene: scene}
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}

// Scene returns the current scene or ErrNoScene.
func (s *SceneStore) Scene() (*core.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scene == nil {
		return nil, ErrNoScene
	}
	return s.scene, nil
}

// Summary returns the diagnostics computed when the scene was stored.
func (s *SceneStore) Summary() (core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scene == nil {
		return core.Summary{}, ErrNoScene
	}
	return s.summary, nil
}

// Subscribe registers a callback invoked after every SetScene.
func (s *SceneStore) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
