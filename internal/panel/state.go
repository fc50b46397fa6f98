// Package panel holds the side-panel state: a station-name slot and a
// climate-content slot, written under a "latest request wins" rule.
package panel

import (
	"html/template"
	"sync"
)

// Token identifies one click. Only the most recent token may write content.
type Token uint64

// LoadingMessage is shown while a climate fetch is outstanding
const LoadingMessage = "Loading climate data..."

// View is a snapshot of the panel slots
type View struct {
	Name    string        `json:"name"`
	Content template.HTML `json:"content"`
	Seq     Token         `json:"seq"`
}

// State is the panel of one browser session
type State struct {
	mu      sync.Mutex
	seq     Token
	name    string
	content template.HTML
}

// New returns an empty panel
func New() *State {
	return &State{}
}

// Begin starts a new selection: it sets the name slot, puts the loading
// placeholder in the content slot and invalidates every earlier token.
func (s *State) Begin(name string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.name = name
	s.content = template.HTML(template.HTMLEscapeString(LoadingMessage))
	return s.seq
}

// Write replaces the content slot if tok is still current. It returns false
// when the write was discarded as stale.
func (s *State) Write(tok Token, content template.HTML) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok != s.seq {
		return false
	}
	s.content = content
	return true
}

// Current reports whether tok is the latest issued token
func (s *State) Current(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tok == s.seq
}

// Snapshot returns the current slots
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{Name: s.name, Content: s.content, Seq: s.seq}
}
