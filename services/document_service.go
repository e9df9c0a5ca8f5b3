package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github/itish2003/docsearch/config"
	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/models"

	"github.com/google/uuid"
)

var (
	ErrNoDocument = errors.New("no document indexed: please upload a PDF file to begin")
	ErrEmptyInput = errors.New("input must not be empty")
	ErrNoText     = errors.New("document contains no extractable text")
	ErrExtraction = errors.New("error loading PDF")
)

// DocumentService answers questions about the one document currently loaded in a session.
type DocumentService interface {
	Ready() error
	LoadDocument(ctx context.Context, session *Session, filename string, r io.Reader) (*models.DocumentInfo, error)
	LoadFile(ctx context.Context, session *Session, path string) (*models.DocumentInfo, error)
	Ask(ctx context.Context, session *Session, question string) (*models.Turn, []models.SourceDocument, error)
}

// DocumentDeps groups the collaborators of the document flow.
type DocumentDeps struct {
	Extractor    Extractor
	Embedder     Embedder
	Answerer     Answerer
	Index        VectorIndex
	Logger       logger.ILogger
	Ready        func() error
	TempDir      string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type documentServiceImpl struct {
	DocumentDeps
}

func NewDocumentService(deps DocumentDeps) DocumentService {
	if deps.ChunkSize <= 0 {
		deps.ChunkSize = config.ChunkSize
	}
	if deps.ChunkOverlap < 0 || deps.ChunkOverlap >= deps.ChunkSize {
		deps.ChunkOverlap = config.ChunkOverlap
	}
	if deps.TopK <= 0 {
		deps.TopK = config.RetrievalTopK
	}
	if deps.Ready == nil {
		deps.Ready = func() error { return nil }
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &documentServiceImpl{DocumentDeps: deps}
}

func (s *documentServiceImpl) Ready() error {
	return s.DocumentDeps.Ready()
}

func (s *documentServiceImpl) LoadFile(ctx context.Context, session *Session, path string) (*models.DocumentInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()
	return s.LoadDocument(ctx, session, filepath.Base(path), f)
}

// LoadDocument replaces the session's document. The previous chunks are
// discarded before the new ones are built, so a failed upload leaves the
// session with no document at all.
func (s *documentServiceImpl) LoadDocument(ctx context.Context, session *Session, filename string, r io.Reader) (*models.DocumentInfo, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if err := checkUploadName(filename); err != nil {
		return nil, err
	}

	session.work.Lock()
	defer session.work.Unlock()

	if prev, ok := session.Document(); ok {
		session.setDocument(nil)
		if err := s.Index.DeleteDocument(ctx, session.ID, prev.ID); err != nil {
			s.Logger.Warn("INDEXER", "Failed to discard previous document", map[string]interface{}{
				"session_id": session.ID, "document_id": prev.ID, "error": err.Error(),
			})
		}
	}

	s.Logger.Info("SERVICE", "Loading document", map[string]interface{}{"session_id": session.ID, "filename": filename})
	pages, err := s.extractUpload(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	text := strings.Join(pages, "\n\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	chunks, err := SplitText(text, s.ChunkSize, s.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("INDEXER", "Split document into chunks", map[string]interface{}{"filename": filename, "chunks": len(chunks)})

	vectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.Embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("could not embed chunk %d of %s: %w", i, filename, err)
		}
		vectors = append(vectors, vec)
	}

	docID := uuid.New().String()
	if err := s.Index.Add(ctx, session.ID, docID, chunks, vectors); err != nil {
		// Remove chunks written before the failure.
		if delErr := s.Index.DeleteDocument(ctx, session.ID, docID); delErr != nil {
			s.Logger.Warn("INDEXER", "Failed to remove partial document", map[string]interface{}{
				"session_id": session.ID, "document_id": docID, "error": delErr.Error(),
			})
		}
		return nil, fmt.Errorf("could not index %s: %w", filename, err)
	}

	info := &models.DocumentInfo{ID: docID, Filename: filename, Pages: len(pages), Chunks: len(chunks)}
	session.setDocument(info)
	s.Logger.Info("SERVICE", "Document indexed", map[string]interface{}{
		"session_id": session.ID, "document_id": docID, "pages": info.Pages, "chunks": info.Chunks,
	})
	return info, nil
}

// extractUpload spills the upload to a temp file for the extractor and removes
// it on every path out.
func (s *documentServiceImpl) extractUpload(r io.Reader) ([]string, error) {
	path, err := writeTempUpload(s.TempDir, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.Logger.Warn("SERVICE", "Failed to remove temp upload", map[string]interface{}{"path": path, "error": err.Error()})
		}
	}()
	return s.Extractor.ExtractPages(path)
}

// Ask answers a question from the session's document. Service failures are
// recorded as an error turn and returned as such, not as an error.
func (s *documentServiceImpl) Ask(ctx context.Context, session *Session, question string) (*models.Turn, []models.SourceDocument, error) {
	if err := s.Ready(); err != nil {
		return nil, nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, ErrEmptyInput
	}

	session.work.Lock()
	defer session.work.Unlock()

	doc, ok := session.Document()
	if !ok {
		return nil, nil, ErrNoDocument
	}

	s.Logger.Info("SERVICE", "Answering question", map[string]interface{}{"session_id": session.ID, "question": question})
	answer, docs, err := s.answer(ctx, session, doc.ID, question)
	if err != nil {
		s.Logger.Error("SERVICE", "Question failed", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
		turn := session.PDFLog.Append(models.Turn{
			Question: question,
			Response: "Error: " + err.Error(),
			IsError:  true,
		})
		return &turn, nil, nil
	}

	turn := session.PDFLog.Append(models.Turn{Question: question, Response: answer})
	session.Memory.Push(turn)
	return &turn, docs, nil
}

func (s *documentServiceImpl) answer(ctx context.Context, session *Session, documentID, question string) (string, []models.SourceDocument, error) {
	vec, err := s.Embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed question: %w", err)
	}
	docs, err := s.Index.Query(ctx, session.ID, documentID, vec, s.TopK)
	if err != nil {
		return "", nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	answer, err := s.Answerer.Answer(ctx, AnswerRequest{
		Question: question,
		Context:  docs,
		History:  session.Memory.Snapshot(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("language model failed: %w", err)
	}
	return answer, docs, nil
}
