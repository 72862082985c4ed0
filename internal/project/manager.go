// Package project keeps open layout projects in memory, writes every
// mutation through to the project store, and recomputes component drawing
// bundles on each geometry or property change.
package project

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/storage"
)

// MaxProjects caps how many projects stay cached in memory. The cache is
// write-through, so eviction never loses data.
const MaxProjects = 10

// ErrComponentLocked rejects edits to locked components. Unlocking first is
// always allowed.
var ErrComponentLocked = errors.New("component is locked")

// Manager is the project registry. All operations are serialized under one
// lock; persistence happens inside the critical section so the cache and the
// store never diverge.
type Manager struct {
	mu       sync.RWMutex
	projects map[string]*projectState
	store    storage.ProjectStore
	opts     geometry.Options
}

type projectState struct {
	project      *models.Project
	lastAccessed time.Time
}

// NewManager creates a project manager backed by the given store. opts are
// the engine defaults from configuration, applied to every build.
func NewManager(store storage.ProjectStore, opts geometry.Options) *Manager {
	return &Manager{
		projects: make(map[string]*projectState),
		store:    store,
		opts:     opts,
	}
}

// CreateProject creates, persists and caches an empty project.
func (m *Manager) CreateProject(name, description string) (*models.Project, error) {
	if name == "" {
		name = "Untitled layout"
	}

	p := models.NewProject(uuid.New().String(), name)
	p.Description = description

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveProject(p); err != nil {
		return nil, err
	}
	m.evictIfNeeded()
	m.projects[p.ID] = &projectState{project: p, lastAccessed: time.Now()}

	fmt.Printf("[Project %s] Created %q\n", shortID(p.ID), p.Name)
	return snapshotProject(p), nil
}

// GetProject returns a snapshot of a project, loading it from the store if
// it is not cached.
func (m *Manager) GetProject(id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(id)
	if err != nil {
		return nil, err
	}
	st.lastAccessed = time.Now()
	return snapshotProject(st.project), nil
}

// ListProjects returns summaries of all stored projects, newest first.
func (m *Manager) ListProjects() ([]*models.ProjectInfo, error) {
	return m.store.ListProjects()
}

// ProjectPatch is a partial project update. Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Canvas      *models.CanvasSettings `json:"canvas,omitempty"`
}

// UpdateProject applies a patch to project metadata and canvas settings.
func (m *Manager) UpdateProject(id string, patch ProjectPatch) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(id)
	if err != nil {
		return nil, err
	}

	p := st.project
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Canvas != nil {
		p.Canvas = *patch.Canvas
	}
	p.UpdatedAt = time.Now().UTC()

	if err := m.store.SaveProject(p); err != nil {
		return nil, err
	}
	st.lastAccessed = time.Now()
	return snapshotProject(p), nil
}

// DeleteProject removes a project from the cache and the store.
func (m *Manager) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.projects, id)
	if err := m.store.DeleteProject(id); err != nil {
		return err
	}
	fmt.Printf("[Project %s] Deleted\n", shortID(id))
	return nil
}

// AddComponent creates a component from the given spec, computes its drawing
// bundle and persists the project. Engine validation failures reject the
// component; the caller maps them to a client error.
func (m *Manager) AddComponent(projectID string, spec models.Component) (*models.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return nil, err
	}
	p := st.project

	c := models.NewComponent(uuid.New().String(), projectID, spec.Type)
	c.Name = spec.Name
	c.EquipmentID = spec.EquipmentID
	c.Label = spec.Label
	c.Geometry = spec.Geometry
	c.Properties = spec.Properties
	c.Style = spec.Style
	c.Accessories = spec.Accessories
	c.Layer = spec.Layer
	c.Tags = spec.Tags

	if c.Style == (geometry.Style{}) {
		c.Style = models.DefaultStyle(c.Type)
	}
	if c.Name == "" {
		c.Name = m.nextName(p, c.Type)
	}
	if p.Canvas.SnapToGrid {
		snapEnvelope(&c.Geometry, p.Canvas.GridSize)
	}

	if err := m.refreshDrawing(c); err != nil {
		return nil, err
	}

	p.Components[c.ID] = c
	p.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveProject(p); err != nil {
		delete(p.Components, c.ID)
		return nil, err
	}
	st.lastAccessed = time.Now()

	cc := *c
	return &cc, nil
}

// ComponentPatch is a partial component update. Nil fields are left
// untouched; geometry and property changes trigger a rebuild.
type ComponentPatch struct {
	Name        *string                      `json:"name,omitempty"`
	EquipmentID *string                      `json:"equipmentId,omitempty"`
	Label       *string                      `json:"label,omitempty"`
	Geometry    *geometry.Envelope           `json:"geometry,omitempty"`
	Properties  *geometry.ConveyorProperties `json:"properties,omitempty"`
	Style       *geometry.Style              `json:"style,omitempty"`
	Accessories *[]geometry.AccessoryRequest `json:"accessories,omitempty"`
	Layer       *int                         `json:"layer,omitempty"`
	Locked      *bool                        `json:"locked,omitempty"`
	Visible     *bool                        `json:"visible,omitempty"`
	Tags        *[]string                    `json:"tags,omitempty"`
}

// UpdateComponent applies a patch, rebuilds the drawing bundle when geometry
// or properties changed, and persists. On engine rejection the component
// keeps its previous state.
func (m *Manager) UpdateComponent(projectID, componentID string, patch ComponentPatch) (*models.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return nil, err
	}
	p := st.project

	c, ok := p.Components[componentID]
	if !ok {
		return nil, fmt.Errorf("component %s: %w", componentID, storage.ErrNotFound)
	}
	if c.Locked && patch.Locked == nil {
		return nil, fmt.Errorf("component %s: %w", componentID, ErrComponentLocked)
	}

	// Patch a copy so engine rejection leaves the stored component intact.
	next := *c
	rebuild := false
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.EquipmentID != nil {
		next.EquipmentID = *patch.EquipmentID
	}
	if patch.Label != nil {
		next.Label = *patch.Label
	}
	if patch.Geometry != nil {
		next.Geometry = *patch.Geometry
		rebuild = true
	}
	if patch.Properties != nil {
		next.Properties = *patch.Properties
		rebuild = true
	}
	if patch.Style != nil {
		next.Style = *patch.Style
		rebuild = true
	}
	if patch.Accessories != nil {
		next.Accessories = *patch.Accessories
		rebuild = true
	}
	if patch.Layer != nil {
		next.Layer = *patch.Layer
	}
	if patch.Locked != nil {
		next.Locked = *patch.Locked
	}
	if patch.Visible != nil {
		next.Visible = *patch.Visible
	}
	if patch.Tags != nil {
		next.Tags = *patch.Tags
	}

	if rebuild {
		if patch.Geometry != nil && p.Canvas.SnapToGrid {
			snapEnvelope(&next.Geometry, p.Canvas.GridSize)
		}
		if err := m.refreshDrawing(&next); err != nil {
			return nil, err
		}
	}
	next.UpdatedAt = time.Now().UTC()

	p.Components[componentID] = &next
	p.UpdatedAt = next.UpdatedAt
	if err := m.store.SaveProject(p); err != nil {
		p.Components[componentID] = c
		return nil, err
	}
	st.lastAccessed = time.Now()

	cc := next
	return &cc, nil
}

// GetComponent returns a copy of one component.
func (m *Manager) GetComponent(projectID, componentID string) (*models.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return nil, err
	}
	c, ok := st.project.Components[componentID]
	if !ok {
		return nil, fmt.Errorf("component %s: %w", componentID, storage.ErrNotFound)
	}
	st.lastAccessed = time.Now()

	cc := *c
	return &cc, nil
}

// DeleteComponent removes a component and persists the project.
func (m *Manager) DeleteComponent(projectID, componentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return err
	}
	p := st.project

	c, ok := p.Components[componentID]
	if !ok {
		return fmt.Errorf("component %s: %w", componentID, storage.ErrNotFound)
	}
	if c.Locked {
		return fmt.Errorf("component %s: %w", componentID, ErrComponentLocked)
	}

	delete(p.Components, componentID)
	p.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveProject(p); err != nil {
		p.Components[componentID] = c
		return err
	}
	st.lastAccessed = time.Now()
	return nil
}

// DuplicateComponent clones a component with a fresh ID, offset on the
// canvas so the copy is visible next to the original.
func (m *Manager) DuplicateComponent(projectID, componentID string) (*models.Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return nil, err
	}
	p := st.project

	src, ok := p.Components[componentID]
	if !ok {
		return nil, fmt.Errorf("component %s: %w", componentID, storage.ErrNotFound)
	}

	c := models.NewComponent(uuid.New().String(), projectID, src.Type)
	c.Name = src.Name + " copy"
	c.Label = src.Label
	c.Geometry = src.Geometry
	c.Geometry.X += 20
	c.Geometry.Y += 20
	c.Properties = src.Properties
	c.Style = src.Style
	c.Accessories = append([]geometry.AccessoryRequest(nil), src.Accessories...)
	c.Layer = src.Layer
	c.Tags = append([]string(nil), src.Tags...)

	if err := m.refreshDrawing(c); err != nil {
		return nil, err
	}

	p.Components[c.ID] = c
	p.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveProject(p); err != nil {
		delete(p.Components, c.ID)
		return nil, err
	}
	st.lastAccessed = time.Now()

	cc := *c
	return &cc, nil
}

// ApplySuggestions turns detection suggestions into components. Suggestions
// that fail geometry validation are skipped with a log line rather than
// aborting the batch; the skipped count is reported to the caller.
func (m *Manager) ApplySuggestions(projectID string, suggestions []models.Suggestion) ([]*models.Component, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.ensureLoaded(projectID)
	if err != nil {
		return nil, 0, err
	}
	p := st.project

	var created []*models.Component
	skipped := 0
	for _, s := range suggestions {
		t := models.ComponentType(s.Type)
		c := models.NewComponent(uuid.New().String(), projectID, t)
		c.Name = s.Label
		c.EquipmentID = s.EquipmentID
		c.Label = s.Label
		c.Geometry = geometry.Envelope{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
		c.Style = models.DefaultStyle(t)
		if models.IsConveyor(t) {
			c.Properties.BeltWidth = s.BeltWidth
			if t == models.TypeCurvedConveyor && s.CurveAngle != 0 {
				angle := s.CurveAngle
				c.Properties.CurveAngle = &angle
			}
		}

		if err := m.refreshDrawing(c); err != nil {
			fmt.Printf("[Project %s] geometry unavailable for suggestion %q: %v\n",
				shortID(projectID), s.EquipmentID, err)
			skipped++
			continue
		}
		p.Components[c.ID] = c
		cc := *c
		created = append(created, &cc)
	}

	if len(created) > 0 {
		p.UpdatedAt = time.Now().UTC()
		if err := m.store.SaveProject(p); err != nil {
			for _, c := range created {
				delete(p.Components, c.ID)
			}
			return nil, 0, err
		}
	}
	st.lastAccessed = time.Now()
	return created, skipped, nil
}

// AdoptProject replaces a project's document wholesale, rebuilding every
// drawing. Used by history restore.
func (m *Manager) AdoptProject(p *models.Project) (*models.Project, error) {
	if p == nil || p.ID == "" {
		return nil, fmt.Errorf("project document has no ID")
	}
	if p.Components == nil {
		p.Components = make(map[string]*models.Component)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rebuildAll(p)
	p.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveProject(p); err != nil {
		return nil, err
	}
	m.evictIfNeeded()
	m.projects[p.ID] = &projectState{project: p, lastAccessed: time.Now()}

	fmt.Printf("[Project %s] Adopted document with %d components\n", shortID(p.ID), len(p.Components))
	return snapshotProject(p), nil
}

// EngineOptions returns the engine defaults the manager builds with.
func (m *Manager) EngineOptions() geometry.Options { return m.opts }

// ensureLoaded returns the cached state for a project, loading and
// rebuilding it from the store on a miss. Caller holds the write lock.
func (m *Manager) ensureLoaded(id string) (*projectState, error) {
	if st, ok := m.projects[id]; ok {
		return st, nil
	}

	p, err := m.store.LoadProject(id)
	if err != nil {
		return nil, err
	}
	m.rebuildAll(p)

	m.evictIfNeeded()
	st := &projectState{project: p, lastAccessed: time.Now()}
	m.projects[id] = st
	return st, nil
}

// rebuildAll recomputes every drawing bundle in a project. Components the
// engine rejects keep a nil bundle; the canvas shows them as unavailable
// instead of the whole project failing to open.
func (m *Manager) rebuildAll(p *models.Project) {
	for _, c := range p.Components {
		if err := m.refreshDrawing(c); err != nil {
			fmt.Printf("[Project %s] geometry unavailable for component %s: %v\n",
				shortID(p.ID), shortID(c.ID), err)
		}
	}
}

// refreshDrawing rebuilds the drawing bundle for conveyor components. Other
// types carry no belt geometry and keep a nil bundle.
func (m *Manager) refreshDrawing(c *models.Component) error {
	kind, ok := models.KindForType(c.Type)
	if !ok {
		c.Drawing = nil
		return nil
	}

	opts := m.opts
	opts.Accessories = c.Accessories
	bundle, err := geometry.Build(c.Geometry, c.Properties, c.Style, kind, opts)
	if err != nil {
		c.Drawing = nil
		return err
	}
	c.Drawing = bundle
	return nil
}

// evictIfNeeded drops the least recently used cache entries once the cache
// is full. Caller holds the write lock.
func (m *Manager) evictIfNeeded() {
	for len(m.projects) >= MaxProjects {
		oldestID := ""
		var oldest time.Time
		for id, st := range m.projects {
			if oldestID == "" || st.lastAccessed.Before(oldest) {
				oldestID = id
				oldest = st.lastAccessed
			}
		}
		if oldestID == "" {
			return
		}
		delete(m.projects, oldestID)
		fmt.Printf("[Project %s] Evicted from cache\n", shortID(oldestID))
	}
}

// nextName numbers new components per type: CV-1, CRV-2 and so on, matching
// the equipment naming the detector recognizes.
func (m *Manager) nextName(p *models.Project, t models.ComponentType) string {
	count := 0
	for _, c := range p.Components {
		if c.Type == t {
			count++
		}
	}
	return fmt.Sprintf("%s-%d", namePrefix(t), count+1)
}

func namePrefix(t models.ComponentType) string {
	switch t {
	case models.TypeStraightConveyor:
		return "CV"
	case models.TypeCurvedConveyor:
		return "CRV"
	case models.TypeInclinedConveyor:
		return "INC"
	case models.TypeMotor:
		return "MTR"
	case models.TypeSensor:
		return "SEN"
	case models.TypeEmergencyStop:
		return "ESTOP"
	case models.TypeLabel:
		return "LBL"
	default:
		return "CMP"
	}
}

// snapEnvelope aligns the envelope origin to the canvas grid.
func snapEnvelope(env *geometry.Envelope, grid float64) {
	if grid <= 0 {
		return
	}
	env.X = math.Round(env.X/grid) * grid
	env.Y = math.Round(env.Y/grid) * grid
}

// snapshotProject copies the project and its component map so callers can
// serialize the result while the manager keeps mutating the original.
// Drawing bundles are shared; they are immutable once built.
func snapshotProject(p *models.Project) *models.Project {
	cp := *p
	cp.Components = make(map[string]*models.Component, len(p.Components))
	for id, c := range p.Components {
		cc := *c
		cp.Components[id] = &cc
	}
	return &cp
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
