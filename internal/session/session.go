// Package session manages the set of loaded source documents for one
// project, including cross-session restoration from the durable document
// store.
package session

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kovancilartr/quizclip/internal/store"
	"github.com/kovancilartr/quizclip/pkg/logger"
)

var pdfMagic = []byte("%PDF-")

// Session owns zero or more source documents and the active-document
// pointer. Scoped to one project; not safe for concurrent use.
type Session struct {
	projectID string
	docStore  *store.DocumentStore
	parse     Parser
	docs      []*SourceDocument
	activeID  string
	log       *logger.Logger
}

type Option func(*Session)

// WithParser replaces the document parser. Used by tests.
func WithParser(p Parser) Option {
	return func(s *Session) {
		s.parse = p
	}
}

func New(projectID string, docStore *store.DocumentStore, log *logger.Logger, options ...Option) *Session {
	s := &Session{
		projectID: projectID,
		docStore:  docStore,
		parse:     DefaultParser,
		log:       log,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Load parses a new source document, persists its raw bytes for later
// restoration, and makes it active. Loading a file with the same name and
// byte size as an existing document is a silent no-op returning the
// existing document.
func (s *Session) Load(name string, data []byte) (*SourceDocument, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%s is not a PDF document", name)
	}

	if existing := s.findDuplicate(name, int64(len(data))); existing != nil {
		s.log.Debug("skipping duplicate load of %s (%d bytes)", name, len(data))
		return existing, nil
	}

	doc, err := s.openDocument(uuid.NewString(), name, data)
	if err != nil {
		return nil, err
	}

	if err := s.docStore.Put(s.projectID, store.StoredDocument{
		ID:      doc.id,
		Name:    doc.name,
		Size:    doc.size,
		Data:    data,
		AddedAt: time.Now(),
	}); err != nil {
		doc.close()
		return nil, fmt.Errorf("failed to persist document %s: %w", name, err)
	}

	s.docs = append(s.docs, doc)
	s.activeID = doc.id
	s.log.Info("loaded %s (%d pages)", name, doc.pageCount)

	return doc, nil
}

// Restore re-parses previously persisted source files. Documents that fail
// to parse are skipped; partial restoration is normal. If no document was
// already active, the first restored one becomes active; an already-active
// document is left alone.
func (s *Session) Restore() ([]*SourceDocument, error) {
	stored, err := s.docStore.List(s.projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored documents: %w", err)
	}

	var restored []*SourceDocument
	for _, rec := range stored {
		if s.findDuplicate(rec.Name, rec.Size) != nil {
			continue
		}

		doc, err := s.openDocument(rec.ID, rec.Name, rec.Data)
		if err != nil {
			s.log.Warn("skipping stored document %s: %v", rec.Name, err)
			continue
		}

		s.docs = append(s.docs, doc)
		restored = append(restored, doc)
	}

	if s.activeID == "" && len(restored) > 0 {
		s.activeID = restored[0].id
	}

	if len(restored) > 0 {
		s.log.Info("restored %d of %d stored documents", len(restored), len(stored))
	}

	return restored, nil
}

func (s *Session) openDocument(id, name string, data []byte) (*SourceDocument, error) {
	parsed, err := s.parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return &SourceDocument{
		id:        id,
		name:      name,
		size:      int64(len(data)),
		pageCount: parsed.NumPage(),
		doc:       parsed,
	}, nil
}

func (s *Session) findDuplicate(name string, size int64) *SourceDocument {
	for _, doc := range s.docs {
		if doc.name == name && doc.size == size {
			return doc
		}
	}
	return nil
}

// SetActive switches the active-document pointer.
func (s *Session) SetActive(id string) error {
	for _, doc := range s.docs {
		if doc.id == id {
			s.activeID = id
			return nil
		}
	}
	return fmt.Errorf("no document with id %s in session", id)
}

// Active returns the active document, or nil when the session is empty.
func (s *Session) Active() *SourceDocument {
	for _, doc := range s.docs {
		if doc.id == s.activeID {
			return doc
		}
	}
	return nil
}

// Documents returns the loaded documents in load order.
func (s *Session) Documents() []*SourceDocument {
	docs := make([]*SourceDocument, len(s.docs))
	copy(docs, s.docs)
	return docs
}

// Remove closes a document, drops it from the session and deletes its
// stored bytes.
func (s *Session) Remove(id string) error {
	for i, doc := range s.docs {
		if doc.id != id {
			continue
		}

		if err := doc.close(); err != nil {
			s.log.Warn("error closing %s: %v", doc.name, err)
		}
		s.docs = append(s.docs[:i], s.docs[i+1:]...)

		if s.activeID == id {
			s.activeID = ""
			if len(s.docs) > 0 {
				s.activeID = s.docs[0].id
			}
		}

		return s.docStore.Delete(s.projectID, id)
	}

	return fmt.Errorf("no document with id %s in session", id)
}

// Close releases every parsed document handle. Stored bytes are kept for
// the next session.
func (s *Session) Close() {
	for _, doc := range s.docs {
		if err := doc.close(); err != nil {
			s.log.Warn("error closing %s: %v", doc.name, err)
		}
	}
	s.docs = nil
	s.activeID = ""
}
