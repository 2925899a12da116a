package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dompl/campaignforge/internal/domain"
	"github.com/dompl/campaignforge/pkg/logger"
	"github.com/dompl/campaignforge/pkg/sections"
)

// EditorSession holds the state of one single-user editing session: the
// template model, the current selection and the dirty flag. All mutations
// go through it; there is no ambient global editor state.
type EditorSession struct {
	mu sync.Mutex

	model             *sections.TemplateModel
	selectedSectionID string
	dirty             bool

	// generation is bumped whenever the model is replaced or discarded.
	// AI responses captured under an older generation are dropped at
	// apply time instead of patching a model the user has moved on from.
	generation int64

	repo     domain.TemplateRepository
	ai       domain.AIGenerator
	products sections.ProductResolver
	renderer *sections.Renderer
	logger   logger.Logger

	// saveMu serializes persistence writes so at most one save is in
	// flight; a save issued while another runs waits instead of racing it.
	saveMu sync.Mutex
}

func NewEditorSession(repo domain.TemplateRepository, ai domain.AIGenerator, products sections.ProductResolver, log logger.Logger) *EditorSession {
	return &EditorSession{
		model:    sections.NewTemplateModel("Untitled campaign"),
		repo:     repo,
		ai:       ai,
		products: products,
		renderer: sections.NewRenderer(log),
		logger:   log,
	}
}

// Model returns the session's template model. Callers must treat it as
// owned by the session and mutate it only through session methods.
func (s *EditorSession) Model() *sections.TemplateModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Dirty reports whether the model has unsaved mutations.
func (s *EditorSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// NewTemplate replaces the session content with a fresh, unsaved model.
func (s *EditorSession) NewTemplate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = sections.NewTemplateModel(name)
	s.selectedSectionID = ""
	s.dirty = false
	s.generation++
}

// LoadTemplate replaces the session content with a saved template.
func (s *EditorSession) LoadTemplate(ctx context.Context, id string) error {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = template.Model
	s.selectedSectionID = ""
	s.dirty = false
	s.generation++
	return nil
}

// Discard drops the in-memory model. In-flight AI or render responses
// arriving afterwards are ignored.
func (s *EditorSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = sections.NewTemplateModel("Untitled campaign")
	s.selectedSectionID = ""
	s.dirty = false
	s.generation++
}

// SelectSection sets the current selection.
func (s *EditorSession) SelectSection(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.selectedSectionID = ""
		return nil
	}
	if _, _, ok := s.model.SectionByID(id); !ok {
		return &sections.UnknownSectionError{ID: id}
	}
	s.selectedSectionID = id
	return nil
}

// SelectedSectionID returns the current selection, empty when none.
func (s *EditorSession) SelectedSectionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedSectionID
}

// AddSection appends a section of the given type, optionally seeded from a
// preset variant.
func (s *EditorSession) AddSection(typeName, variantID string) (*sections.SectionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := s.model.AddSection(typeName, variantID)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return inst, nil
}

// RemoveSection deletes a section; removing an absent id is a no-op and
// reported as such.
func (s *EditorSession) RemoveSection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.model.RemoveSection(id)
	if removed {
		s.dirty = true
		if s.selectedSectionID == id {
			s.selectedSectionID = ""
		}
	}
	return removed
}

// MoveSection reorders a section to newIndex.
func (s *EditorSession) MoveSection(id string, newIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.model.MoveSection(id, newIndex)
	if moved {
		s.dirty = true
	}
	return moved
}

// DuplicateSection copies a section in place.
func (s *EditorSession) DuplicateSection(id string) (*sections.SectionInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup, err := s.model.DuplicateSection(id)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	return dup, nil
}

// ReconcileOrder applies an explicit order signal from the host UI's
// drag-and-drop. This is the only external path that may rewrite order. The
// session only becomes dirty when the order actually changed, so echoed or
// empty signals do not trigger autosave writes.
func (s *EditorSession) ReconcileOrder(order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.model.SectionOrder()
	s.model.ReconcileOrder(order)
	if !slices.Equal(before, s.model.SectionOrder()) {
		s.dirty = true
	}
}

// EditField applies a user edit to one field. User edits always win and do
// not change the field's AI flag.
func (s *EditorSession) EditField(sectionID, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, _, ok := s.model.SectionByID(sectionID)
	if !ok {
		return &sections.UnknownSectionError{ID: sectionID}
	}
	st, err := sections.GetType(inst.Type)
	if err != nil {
		return err
	}
	if err := sections.ApplyUserEdit(inst, st, key, value); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// SetFieldAIMode toggles a field between AI and manual mode without
// touching its current value.
func (s *EditorSession) SetFieldAIMode(sectionID, key string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, _, ok := s.model.SectionByID(sectionID)
	if !ok {
		return &sections.UnknownSectionError{ID: sectionID}
	}
	st, err := sections.GetType(inst.Type)
	if err != nil {
		return err
	}
	if err := sections.SetAIFlag(inst, st, key, enabled); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// RegenerateSection asks the AI collaborator for fresh copy for one section
// and merges the patch through the AI-flag rules. A response arriving after
// the section was deleted or the model replaced is discarded silently: the
// returned result is nil in that case, with no error.
func (s *EditorSession) RegenerateSection(ctx context.Context, sectionID string, genCtx domain.GenerationContext) (*sections.PatchResult, error) {
	req, gen, err := s.buildGenerationRequest(sectionID, genCtx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		// No AI-enabled fields to generate for.
		return &sections.PatchResult{}, nil
	}

	result, err := s.ai.GenerateSectionContent(ctx, *req)
	if err != nil {
		return nil, &domain.ErrGenerationFailed{SectionID: sectionID, Reason: "generation collaborator error", Err: err}
	}

	return s.applyGenerationResult(sectionID, gen, result)
}

// GenerationOutcome is the per-section result of a bulk generation run.
type GenerationOutcome struct {
	SectionID string
	Result    *sections.PatchResult
	Err       error
}

// GenerateAll runs AI generation for every AI-capable section. Requests fan
// out concurrently; patches are applied in arrival order under the session
// lock. A failing section does not abort the others; its outcome carries
// the error and its settings stay untouched.
func (s *EditorSession) GenerateAll(ctx context.Context, genCtx domain.GenerationContext) ([]GenerationOutcome, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.model.Sections))
	for _, inst := range s.model.Sections {
		st, err := sections.GetType(inst.Type)
		if err != nil || !st.HasAI {
			continue
		}
		ids = append(ids, inst.ID)
	}
	s.mu.Unlock()

	outcomes := make([]GenerationOutcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			result, err := s.RegenerateSection(gctx, id, genCtx)
			outcomes[i] = GenerationOutcome{SectionID: id, Result: result, Err: err}
			// Per-section failures are reported, never propagated.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// buildGenerationRequest snapshots what the collaborator needs under the
// lock. It returns a nil request when the section has nothing AI-enabled.
func (s *EditorSession) buildGenerationRequest(sectionID string, genCtx domain.GenerationContext) (*domain.GenerationRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, _, ok := s.model.SectionByID(sectionID)
	if !ok {
		return nil, 0, &sections.UnknownSectionError{ID: sectionID}
	}
	st, err := sections.GetType(inst.Type)
	if err != nil {
		return nil, 0, err
	}

	var fields []string
	for _, key := range st.AIEligibleKeys() {
		if inst.AIEnabled(key) {
			fields = append(fields, key)
		}
	}
	if len(fields) == 0 {
		return nil, s.generation, nil
	}

	settings := make(domain.MapOfAny, len(inst.Settings))
	for k, v := range inst.Settings {
		settings[k] = v
	}

	return &domain.GenerationRequest{
		SectionType:     inst.Type,
		Fields:          fields,
		CurrentSettings: settings,
		Context:         genCtx,
	}, s.generation, nil
}

// applyGenerationResult merges an AI response, re-validating that the world
// it was generated for still exists.
func (s *EditorSession) applyGenerationResult(sectionID string, gen int64, result *domain.GenerationResult) (*sections.PatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.WithField("section_id", sectionID).Debug("discarding stale generation response")
		return nil, nil
	}
	inst, _, ok := s.model.SectionByID(sectionID)
	if !ok {
		// Section was deleted mid-flight, not an error.
		s.logger.WithField("section_id", sectionID).Debug("discarding generation response for removed section")
		return nil, nil
	}
	st, err := sections.GetType(inst.Type)
	if err != nil {
		return nil, err
	}

	patch, err := sections.ApplyAIPatchJSON(inst, st, result.Fields, s.logger)
	if err != nil {
		return nil, &domain.ErrGenerationFailed{SectionID: sectionID, Reason: "unusable generation payload", Err: err}
	}
	for field, reason := range result.FailedFields {
		s.logger.WithFields(map[string]interface{}{
			"section_id": sectionID,
			"field":      field,
		}).Warn(fmt.Sprintf("generation failed for field: %s", reason))
	}
	if len(patch.Applied) > 0 {
		s.dirty = true
	}
	return &patch, nil
}

// Save persists the current model explicitly. Failures surface to the
// caller. Saves are serialized: a save issued while another is in flight
// waits for it rather than racing a half-updated write. The repository gets
// a snapshot taken under the session lock, never the live model: the
// autosave goroutine may be marshalling it while the user keeps editing.
func (s *EditorSession) Save(ctx context.Context) (string, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	snapshot := s.model.Clone()
	s.mu.Unlock()

	template := &domain.CampaignTemplate{
		ID:    snapshot.ID,
		Name:  snapshot.Name,
		Model: snapshot,
	}

	id, err := s.repo.Save(ctx, template)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to save template: %v", err))
		return "", fmt.Errorf("failed to save template: %w", err)
	}

	s.mu.Lock()
	s.model.ID = id
	s.dirty = false
	s.mu.Unlock()
	return id, nil
}

// StartAutosave launches the periodic checkpoint loop. It fires only when
// the model has unsaved mutations, never blocks interactive edits, and a
// missed save stays silent and the next tick retries. The loop stops when
// ctx is cancelled.
func (s *EditorSession) StartAutosave(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.Dirty() {
					continue
				}
				if _, err := s.Save(ctx); err != nil {
					s.logger.Debug(fmt.Sprintf("autosave failed, will retry: %v", err))
				}
			}
		}
	}()
}

// RenderPreview renders a snapshot of the current model to HTML. Rendering
// never mutates the model, and working on a copy keeps a slow render from
// reading settings maps an edit is writing.
func (s *EditorSession) RenderPreview(ctx context.Context, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	model := s.model.Clone()
	s.mu.Unlock()

	rc := &sections.RenderContext{Data: data, Products: s.products}
	return s.renderer.RenderDocument(ctx, model, rc)
}

// RenderEmail renders the HTML document and its plain-text companion for
// the delivery collaborator.
func (s *EditorSession) RenderEmail(ctx context.Context, data map[string]interface{}) (html string, plainText string, err error) {
	s.mu.Lock()
	model := s.model.Clone()
	s.mu.Unlock()

	rc := &sections.RenderContext{Data: data, Products: s.products}
	html, err = s.renderer.RenderDocument(ctx, model, rc)
	if err != nil {
		return "", "", err
	}
	plainText, err = s.renderer.RenderPlainText(ctx, model, rc)
	if err != nil {
		return "", "", err
	}
	return html, plainText, nil
}
