package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/glog"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/segmentio/encoding/json"
)

var (
	// ErrDuplicateTitle is returned when a second document with an already registered title is registered
	// for a class that is not declared as sharing its schema
	ErrDuplicateTitle = errors.New("duplicate schema title")
	// ErrUnregisteredClass is returned when validating against a class no schema was registered for
	ErrUnregisteredClass = errors.New("unregistered schema class")
	// ErrSealed is returned by registrations attempted after Seal
	ErrSealed = errors.New("schema registry is sealed")
)

// Entry is a compiled schema document
type Entry struct {
	Title string
	File  string

	schema *jsonschema.Schema
}

// Registry maps schema titles to compiled validators and logical class names to titles.
// Registration happens at startup, Validate is safe for concurrent use once the registry is sealed.
type Registry struct {
	sync.RWMutex
	baseDir  string
	compiler *jsonschema.Compiler
	shared   map[string]bool
	entries  map[string]*Entry
	classes  map[string]string
	sealed   bool
}

// NewRegistry creates a registry resolving schema files and their references inside baseDir.
// sharedClasses lists the logical classes allowed to reuse a title that is already registered.
func NewRegistry(baseDir string, sharedClasses ...string) (*Registry, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)

	shared := make(map[string]bool, len(sharedClasses))
	for _, class := range sharedClasses {
		shared[class] = true
	}
	return &Registry{
		baseDir:  abs,
		compiler: compiler,
		shared:   shared,
		entries:  make(map[string]*Entry),
		classes:  make(map[string]string),
	}, nil
}

func (r *Registry) BaseDir() string {
	return r.baseDir
}

// Register compiles the schema held in file (relative to the base directory) and binds class to its title
func (r *Registry) Register(file string, class string) error {
	r.Lock()
	defer r.Unlock()

	if r.sealed {
		return ErrSealed
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, file)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read schema %s: %w", file, err)
	}
	var header struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return fmt.Errorf("unable to parse schema %s: %w", file, err)
	}
	if header.Title == "" {
		return fmt.Errorf("schema %s has no title", file)
	}

	if existing, ok := r.entries[header.Title]; ok {
		if !r.shared[class] {
			return fmt.Errorf("class %s, schema %s: %w %q (already held by %s)", class, file, ErrDuplicateTitle, header.Title, existing.File)
		}
		r.classes[class] = header.Title
		return nil
	}

	compiled, err := r.compiler.Compile(path)
	if err != nil {
		return fmt.Errorf("unable to compile schema %s: %w", file, err)
	}
	r.entries[header.Title] = &Entry{
		Title:  header.Title,
		File:   file,
		schema: compiled,
	}
	r.classes[class] = header.Title
	return nil
}

// RegisterWithSample registers the schema and checks it accepts the given sample document
func (r *Registry) RegisterWithSample(file string, class string, sample []byte) error {
	if err := r.Register(file, class); err != nil {
		return err
	}
	if err := r.Validate(class, sample); err != nil {
		return fmt.Errorf("self check of schema %s failed: %w", file, err)
	}
	return nil
}

// Seal forbids any further registration
func (r *Registry) Seal() {
	r.Lock()
	defer r.Unlock()
	r.sealed = true
}

func (r *Registry) IsSealed() bool {
	r.RLock()
	defer r.RUnlock()
	return r.sealed
}

// Title returns the schema title the class resolves to
func (r *Registry) Title(class string) (string, bool) {
	r.RLock()
	defer r.RUnlock()
	title, ok := r.classes[class]
	return title, ok
}

// Validate checks the json payload against the schema of the given class. Returns nil or a *ValidationError.
func (r *Registry) Validate(class string, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			glog.Errorf("schema validation of class %s panicked: %v", class, rec)
			err = &ValidationError{Class: class, Err: fmt.Errorf("validator failure: %v", rec)}
		}
	}()

	r.RLock()
	title, ok := r.classes[class]
	var entry *Entry
	if ok {
		entry, ok = r.entries[title]
	}
	r.RUnlock()
	if !ok {
		return &ValidationError{Class: class, Title: title, Err: ErrUnregisteredClass}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return &ValidationError{Class: class, Title: title, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if err := entry.schema.Validate(doc); err != nil {
		return &ValidationError{Class: class, Title: title, Err: err}
	}
	return nil
}

// ValidateValue marshals v to json and validates it
func (r *Registry) ValidateValue(class string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return &ValidationError{Class: class, Err: err}
	}
	return r.Validate(class, payload)
}

// ValidationError reports why a payload did not pass validation
type ValidationError struct {
	Class string
	Title string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("validation of class %s failed: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("validation of class %s (schema %q) failed: %v", e.Class, e.Title, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
