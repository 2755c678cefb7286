package console

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/finsite/backend/internal/domain/content"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/media"
)

// Editor errors
var (
	ErrNoForm       = shared.NewDomainError("NO_FORM_OPEN", "No form is open")
	ErrNoImageField = shared.NewDomainError("NO_IMAGE_FIELD", "This record has no image")
	ErrFormChanged  = shared.NewDomainError("FORM_CHANGED", "The form was closed before the image was ready")
)

type imageAssist struct {
	images ImageGenerator
	sink   media.ImageSink
}

func (a imageAssist) supported() bool {
	return a.images != nil || a.sink != nil
}

// Editor is the modal form of one content collection. The working copy
// starts from defaults on create and from the snapshot record on edit.
type Editor[T content.Entity[T]] struct {
	console *Console
	kind    content.Kind
	draft   func() T
	list    func(Snapshot) []T
	create  func(context.Context, T) (T, error)
	update  func(context.Context, T) (T, error)
	assist  imageAssist

	mu      sync.Mutex
	open    bool
	working T
	// Bumped whenever the form is opened, saved or cancelled
	generation uint64
}

func newEditor[T content.Entity[T]](
	c *Console,
	kind content.Kind,
	draft func() T,
	list func(Snapshot) []T,
	create, update func(context.Context, T) (T, error),
	assist imageAssist,
) *Editor[T] {
	return &Editor[T]{
		console: c,
		kind:    kind,
		draft:   draft,
		list:    list,
		create:  create,
		update:  update,
		assist:  assist,
		working: draft(),
	}
}

// Kind returns the collection the editor manages
func (e *Editor[T]) Kind() content.Kind { return e.kind }

// BeginCreate opens the form with default values
func (e *Editor[T]) BeginCreate() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(true)
	return e.working
}

// BeginEdit opens the form on a copy of the snapshot record tagged with its ID
func (e *Editor[T]) BeginEdit(id string) (T, error) {
	item, ok := findByID(e.list(e.console.Snapshot()), id, func(t T) string { return t.GetID() })
	if !ok {
		var zero T
		return zero, ErrRecordNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.open = true
	e.working = item.WithID(id)
	return e.working, nil
}

// Working returns the working copy and whether the form is open
func (e *Editor[T]) Working() (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working, e.open
}

// Update applies fn to the working copy. The record ID cannot be changed.
func (e *Editor[T]) Update(fn func(*T)) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open {
		var zero T
		return zero, ErrNoForm
	}
	id := e.working.GetID()
	fn(&e.working)
	e.working = e.working.WithID(id)
	return e.working, nil
}

// Save validates the working copy, then updates it when it carries an ID
// and creates it otherwise. On success the form closes, resets to defaults
// and the console refreshes.
func (e *Editor[T]) Save(ctx context.Context) (T, error) {
	var zero T
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return zero, ErrNoForm
	}
	item := e.working
	gen := e.generation
	e.mu.Unlock()

	if err := item.Validate(); err != nil {
		return zero, err
	}

	var saved T
	var err error
	if item.GetID() != "" {
		saved, err = e.update(ctx, item)
	} else {
		saved, err = e.create(ctx, item)
	}
	if err != nil {
		return zero, err
	}

	e.mu.Lock()
	if e.generation == gen {
		e.reset(false)
	}
	e.mu.Unlock()

	e.console.refreshAfterWrite(ctx)
	return saved, nil
}

// Cancel closes the form and discards the working copy
func (e *Editor[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(false)
}

// GenerateImage asks the AI for an illustration of the working copy's
// title and stores the result as its image. On failure the working copy is
// left untouched.
func (e *Editor[T]) GenerateImage(ctx context.Context) (T, error) {
	var zero T
	if e.assist.images == nil {
		return zero, ErrNoImageField
	}
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return zero, ErrNoForm
	}
	subject := e.working.Label()
	gen := e.generation
	e.mu.Unlock()

	url, err := e.assist.images.Generate(ctx, subject)
	if err != nil {
		return zero, err
	}
	return e.setImage(gen, url)
}

// AttachUpload stores an uploaded image through the media sink and sets
// its URL on the working copy
func (e *Editor[T]) AttachUpload(ctx context.Context, name, contentType string, data []byte) (T, error) {
	var zero T
	if e.assist.sink == nil {
		return zero, ErrNoImageField
	}
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return zero, ErrNoForm
	}
	gen := e.generation
	e.mu.Unlock()

	url, err := e.assist.sink.Store(ctx, name, contentType, data)
	if err != nil {
		return zero, err
	}
	return e.setImage(gen, url)
}

// setImage applies url unless the form was reopened or closed meanwhile.
// Between concurrent generate and upload calls the last to finish wins.
func (e *Editor[T]) setImage(gen uint64, url string) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || e.generation != gen {
		var zero T
		return zero, ErrFormChanged
	}
	e.working = e.working.WithImage(url)
	return e.working, nil
}

func (e *Editor[T]) reset(open bool) {
	e.generation++
	e.open = open
	e.working = e.draft()
}

// Form is the kind-agnostic view of an Editor used by transports that
// exchange the working copy as JSON
type Form interface {
	Kind() content.Kind
	BeginCreate() any
	BeginEdit(id string) (any, error)
	Working() (any, bool)
	Patch(data []byte) (any, error)
	Save(ctx context.Context) (any, error)
	Cancel()
	GenerateImage(ctx context.Context) (any, error)
	AttachUpload(ctx context.Context, name, contentType string, data []byte) (any, error)
	SupportsImages() bool
}

// Form adapts the editor to Form
func (e *Editor[T]) Form() Form {
	return editorForm[T]{e}
}

type editorForm[T content.Entity[T]] struct {
	e *Editor[T]
}

func (f editorForm[T]) Kind() content.Kind { return f.e.kind }

func (f editorForm[T]) BeginCreate() any { return f.e.BeginCreate() }

func (f editorForm[T]) BeginEdit(id string) (any, error) { return f.e.BeginEdit(id) }

func (f editorForm[T]) Working() (any, bool) { return f.e.Working() }

// Patch merges a JSON object onto the working copy
func (f editorForm[T]) Patch(data []byte) (any, error) {
	var decodeErr error
	item, err := f.e.Update(func(t *T) {
		cp := *t
		if decodeErr = json.Unmarshal(data, &cp); decodeErr == nil {
			*t = cp
		}
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, shared.NewDomainError("INVALID_FORM", "Malformed form data: "+decodeErr.Error())
	}
	return item, nil
}

func (f editorForm[T]) Save(ctx context.Context) (any, error) { return f.e.Save(ctx) }

func (f editorForm[T]) Cancel() { f.e.Cancel() }

func (f editorForm[T]) GenerateImage(ctx context.Context) (any, error) { return f.e.GenerateImage(ctx) }

func (f editorForm[T]) AttachUpload(ctx context.Context, name, contentType string, data []byte) (any, error) {
	return f.e.AttachUpload(ctx, name, contentType, data)
}

func (f editorForm[T]) SupportsImages() bool { return f.e.assist.supported() }
