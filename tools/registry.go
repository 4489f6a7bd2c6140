package tools

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"sync"

	"github.com/petal-labs/zai-go/core"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Metadata describes a registered tool.
type Metadata struct {
	Name          string
	Description   string
	Schema        ToolSchema
	Enabled       bool
	Tags          []string
	Version       string
	NonIdempotent bool
}

// HasTag reports whether the tool carries tag.
func (m Metadata) HasTag(tag string) bool { return slices.Contains(m.Tags, tag) }

// RegisterOption adjusts a tool's metadata at registration.
type RegisterOption func(*Metadata)

// WithTags labels the tool for filtered declaration lists.
func WithTags(tags ...string) RegisterOption {
	return func(m *Metadata) { m.Tags = append(m.Tags, tags...) }
}

// WithVersion records a version string.
func WithVersion(v string) RegisterOption {
	return func(m *Metadata) { m.Version = v }
}

// Disabled registers the tool without exposing it.
func Disabled() RegisterOption {
	return func(m *Metadata) { m.Enabled = false }
}

// NonIdempotent marks a tool whose failed calls must not be repeated.
func NonIdempotent() RegisterOption {
	return func(m *Metadata) { m.NonIdempotent = true }
}

type entry struct {
	tool Tool
	meta Metadata
}

// Registry manages a collection of tools indexed by name.
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*entry),
	}
}

// Register adds a tool. It fails with core.ErrRegistration when the name is
// invalid or already taken; an existing registration is never replaced.
func (r *Registry) Register(t Tool, opts ...RegisterOption) error {
	if t == nil {
		return fmt.Errorf("%w: tool cannot be nil", core.ErrRegistration)
	}

	name := t.Name()
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: invalid tool name %q (want 1-64 of [A-Za-z0-9_-])", core.ErrRegistration, name)
	}

	meta := Metadata{
		Name:        name,
		Description: t.Description(),
		Schema:      t.Schema(),
		Enabled:     true,
	}
	if ir, ok := t.(idempotenceReporter); ok && !ir.Idempotent() {
		meta.NonIdempotent = true
	}
	for _, opt := range opts {
		opt(&meta)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: tool %q already registered", core.ErrRegistration, name)
	}

	r.tools[name] = &entry{tool: t, meta: meta}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Tool, opts ...RegisterOption) {
	if err := r.Register(t, opts...); err != nil {
		panic(err)
	}
}

// Unregister removes the named tool and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.tools[name]
	delete(r.tools, name)
	return ok
}

// Lookup returns the tool and a copy of its metadata.
func (r *Registry) Lookup(name string) (Tool, Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return nil, Metadata{}, false
	}
	return e.tool, copyMetadata(e.meta), true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, _, ok := r.Lookup(name)
	return t, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

// List returns all registered tools sorted by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, name := range r.sortedNamesLocked() {
		result = append(result, r.tools[name].tool)
	}
	return result
}

// Metadata returns the metadata of every tool sorted by name.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.tools))
	for _, name := range r.sortedNamesLocked() {
		result = append(result, copyMetadata(r.tools[name].meta))
	}
	return result
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// SetEnabled toggles whether a tool is declared to the model and callable
// through an Executor.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tools[name]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrToolNotFound, name)
	}
	e.meta.Enabled = enabled
	return nil
}

// Declarations returns the enabled tools as model declarations, sorted by name.
func (r *Registry) Declarations() []core.ToolDeclaration {
	return r.DeclarationsFunc(func(Metadata) bool { return true })
}

// DeclarationsByTag returns the enabled tools carrying tag.
func (r *Registry) DeclarationsByTag(tag string) []core.ToolDeclaration {
	return r.DeclarationsFunc(func(m Metadata) bool { return m.HasTag(tag) })
}

// DeclarationsFunc returns the enabled tools accepted by keep.
func (r *Registry) DeclarationsFunc(keep func(Metadata) bool) []core.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var decls []core.ToolDeclaration
	for _, name := range r.sortedNamesLocked() {
		m := r.tools[name].meta
		if !m.Enabled || !keep(m) {
			continue
		}
		decls = append(decls, core.ToolDeclaration{
			Name:        m.Name,
			Description: m.Description,
			Parameters:  m.Schema.Parameters(),
		})
	}
	return decls
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyMetadata(m Metadata) Metadata {
	m.Tags = slices.Clone(m.Tags)
	return m
}
