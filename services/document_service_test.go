package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github/itish2003/docsearch/config"
	"github/itish2003/docsearch/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	pages    []string
	err      error
	seenPath string
	existed  bool
}

func (s *stubExtractor) ExtractPages(path string) ([]string, error) {
	s.seenPath = path
	_, statErr := os.Stat(path)
	s.existed = statErr == nil
	return s.pages, s.err
}

// wordEmbedder counts a few vocabulary words so related text lands close together.
type wordEmbedder struct {
	err   error
	calls int
}

var testVocabulary = []string{"invoice", "total", "weather", "cat", "dog", "42"}

func (w *wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(testVocabulary)+1)
	for i, word := range testVocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}
	vec[len(testVocabulary)] = 0.01
	return vec, nil
}

// echoAnswerer answers with the best retrieved chunk.
type echoAnswerer struct {
	err  error
	last AnswerRequest
	hits int
}

func (e *echoAnswerer) Answer(_ context.Context, req AnswerRequest) (string, error) {
	e.hits++
	e.last = req
	if e.err != nil {
		return "", e.err
	}
	if len(req.Context) == 0 {
		return "I don't know.", nil
	}
	return req.Context[0].Text, nil
}

type fixture struct {
	svc       DocumentService
	extractor *stubExtractor
	embedder  *wordEmbedder
	answerer  *echoAnswerer
	index     *MemoryIndex
	session   *Session
	tempDir   string
}

func newFixture(t *testing.T, pages ...string) *fixture {
	t.Helper()
	f := &fixture{
		extractor: &stubExtractor{pages: pages},
		embedder:  &wordEmbedder{},
		answerer:  &echoAnswerer{},
		index:     NewMemoryIndex(),
		session:   NewSession(config.MemoryWindow),
		tempDir:   t.TempDir(),
	}
	f.svc = NewDocumentService(DocumentDeps{
		Extractor: f.extractor,
		Embedder:  f.embedder,
		Answerer:  f.answerer,
		Index:     f.index,
		Logger:    logger.NewNop(),
		TempDir:   f.tempDir,
	})
	return f
}

func (f *fixture) load(t *testing.T, name string) error {
	t.Helper()
	_, err := f.svc.LoadDocument(context.Background(), f.session, name, strings.NewReader("%PDF-1.4 fake"))
	return err
}

func TestDocumentFlow_InvoiceEndToEnd(t *testing.T) {
	f := newFixture(t, "Invoice total: $42")

	info, err := f.svc.LoadDocument(context.Background(), f.session, "invoice.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.Equal(t, 1, info.Chunks)
	assert.Equal(t, "invoice.pdf", info.Filename)

	turn, docs, err := f.svc.Ask(context.Background(), f.session, "What is the invoice total?")
	require.NoError(t, err)
	assert.Contains(t, turn.Response, "42")
	assert.False(t, turn.IsError)
	require.NotEmpty(t, docs)
	assert.Equal(t, 1, f.session.PDFLog.Len())
	assert.Equal(t, 1, f.session.Memory.Len())
}

func TestDocumentFlow_TempFileRemoved(t *testing.T) {
	t.Run("after success", func(t *testing.T) {
		f := newFixture(t, "some text")
		require.NoError(t, f.load(t, "a.pdf"))
		assert.True(t, f.extractor.existed)
		assert.NoFileExists(t, f.extractor.seenPath)
	})

	t.Run("after extraction failure", func(t *testing.T) {
		f := newFixture(t)
		f.extractor.err = errors.New("malformed xref table")
		err := f.load(t, "a.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed xref table")
		assert.True(t, f.extractor.existed)
		assert.NoFileExists(t, f.extractor.seenPath)

		entries, _ := os.ReadDir(f.tempDir)
		assert.Empty(t, entries)
	})
}

func TestDocumentFlow_AskBeforeIndexNeverReachesModel(t *testing.T) {
	f := newFixture(t, "text")

	_, _, err := f.svc.Ask(context.Background(), f.session, "anything?")
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.Zero(t, f.answerer.hits)
	assert.Zero(t, f.embedder.calls)
	assert.Zero(t, f.session.PDFLog.Len())
}

func TestDocumentFlow_NewUploadDiscardsOldIndex(t *testing.T) {
	f := newFixture(t, "The cat sat on the mat.")
	require.NoError(t, f.load(t, "cat.pdf"))
	first, _ := f.session.Document()

	f.extractor.pages = []string{"The dog chased the ball."}
	require.NoError(t, f.load(t, "dog.pdf"))
	second, ok := f.session.Document()
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, f.index.Len(f.session.ID))

	turn, docs, err := f.svc.Ask(context.Background(), f.session, "What did the cat do?")
	require.NoError(t, err)
	for _, d := range docs {
		assert.NotContains(t, d.Text, "cat")
	}
	assert.Contains(t, turn.Response, "dog")
}

func TestDocumentFlow_FailedUploadLeavesNoIndex(t *testing.T) {
	f := newFixture(t, "Invoice total: $42")
	require.NoError(t, f.load(t, "invoice.pdf"))

	f.embedder.err = errors.New("quota exceeded")
	err := f.load(t, "second.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, ok := f.session.Document()
	assert.False(t, ok)
	assert.Zero(t, f.index.Len(f.session.ID))

	f.embedder.err = nil
	_, _, err = f.svc.Ask(context.Background(), f.session, "total?")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestDocumentFlow_RejectsNonPDF(t *testing.T) {
	f := newFixture(t, "Invoice total: $42")
	require.NoError(t, f.load(t, "invoice.pdf"))

	err := f.load(t, "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	_, ok := f.session.Document()
	assert.True(t, ok, "a rejected upload must not discard the current document")
}

func TestDocumentFlow_EmptyDocument(t *testing.T) {
	f := newFixture(t, "   ", "\n")
	assert.ErrorIs(t, f.load(t, "blank.pdf"), ErrNoText)
}

func TestDocumentFlow_ModelFailureRecordsErrorTurn(t *testing.T) {
	f := newFixture(t, "Invoice total: $42")
	require.NoError(t, f.load(t, "invoice.pdf"))
	f.answerer.err = errors.New("429 rate limited")

	turn, _, err := f.svc.Ask(context.Background(), f.session, "total?")
	require.NoError(t, err)
	assert.True(t, turn.IsError)
	assert.Equal(t, "Error: language model failed: 429 rate limited", turn.Response)
	assert.Equal(t, 1, f.session.PDFLog.Len())
	assert.Zero(t, f.session.Memory.Len())
}

func TestDocumentFlow_MemoryWindowPassedToModel(t *testing.T) {
	f := newFixture(t, "Invoice total: $42")
	require.NoError(t, f.load(t, "invoice.pdf"))

	for i := 0; i < 7; i++ {
		_, _, err := f.svc.Ask(context.Background(), f.session, "invoice total?")
		require.NoError(t, err)
	}
	assert.Len(t, f.answerer.last.History, config.MemoryWindow)
	assert.Equal(t, 5, f.session.Memory.Len())
	assert.Equal(t, 7, f.session.PDFLog.Len())
}

func TestDocumentFlow_MissingCredential(t *testing.T) {
	f := newFixture(t, "x")
	f.svc = NewDocumentService(DocumentDeps{
		Extractor: f.extractor,
		Embedder:  f.embedder,
		Answerer:  f.answerer,
		Index:     f.index,
		Ready:     config.Default().GoogleReady,
	})

	var mce *config.MissingCredentialsError
	assert.True(t, errors.As(f.load(t, "a.pdf"), &mce))
	_, _, err := f.svc.Ask(context.Background(), f.session, "q")
	assert.True(t, errors.As(err, &mce))
	assert.Empty(t, f.extractor.seenPath)
}

func TestSplitText_SizeAndOverlap(t *testing.T) {
	words := make([]string, 400)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i)
	}
	chunks, err := SplitText(strings.Join(words, " "), 500, 100)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 500)
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		first := strings.Fields(c)[0]
		at := strings.Index(prev, first)
		require.GreaterOrEqual(t, at, 0, "chunk %d does not start inside chunk %d", i, i-1)
		overlap := prev[at:]
		assert.True(t, strings.HasPrefix(c, overlap), "chunk %d should start with the tail of chunk %d", i, i-1)
		assert.LessOrEqual(t, len(overlap), 100)
		assert.Greater(t, len(overlap), 50)
	}
}

// flakyIndex fails DeleteDocument, or fails Add after writing the first chunk.
type flakyIndex struct {
	*MemoryIndex
	deleteErr  error
	addFailure error
}

func (f *flakyIndex) Add(ctx context.Context, sessionID, documentID string, chunks []string, vectors [][]float32) error {
	if f.addFailure == nil {
		return f.MemoryIndex.Add(ctx, sessionID, documentID, chunks, vectors)
	}
	if err := f.MemoryIndex.Add(ctx, sessionID, documentID, chunks[:1], vectors[:1]); err != nil {
		return err
	}
	return f.addFailure
}

func (f *flakyIndex) DeleteDocument(ctx context.Context, sessionID, documentID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryIndex.DeleteDocument(ctx, sessionID, documentID)
}

func newFlakyFixture(t *testing.T, index *flakyIndex, pages ...string) *fixture {
	t.Helper()
	f := newFixture(t, pages...)
	f.index = index.MemoryIndex
	f.svc = NewDocumentService(DocumentDeps{
		Extractor: f.extractor,
		Embedder:  f.embedder,
		Answerer:  f.answerer,
		Index:     index,
		Logger:    logger.NewNop(),
		TempDir:   f.tempDir,
	})
	return f
}

func TestDocumentFlow_ReplacedDocumentNotRetrievedWhenDeleteFails(t *testing.T) {
	index := &flakyIndex{MemoryIndex: NewMemoryIndex(), deleteErr: errors.New("chroma unavailable")}
	f := newFlakyFixture(t, index, "The cat sat on the mat.")
	require.NoError(t, f.load(t, "cat.pdf"))

	f.extractor.pages = []string{"The dog chased the ball."}
	require.NoError(t, f.load(t, "dog.pdf"))
	assert.Equal(t, 2, f.index.Len(f.session.ID))

	turn, docs, err := f.svc.Ask(context.Background(), f.session, "What did the cat do?")
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	for _, d := range docs {
		assert.NotContains(t, d.Text, "cat")
	}
	assert.Equal(t, "The dog chased the ball.", turn.Response)
}

func TestDocumentFlow_PartialAddIsRemoved(t *testing.T) {
	index := &flakyIndex{MemoryIndex: NewMemoryIndex(), addFailure: errors.New("connection reset")}
	text := strings.Repeat("The cat sat on the mat. ", 60)
	f := newFlakyFixture(t, index, text)

	err := f.load(t, "cat.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, f.index.Len(f.session.ID))
	_, ok := f.session.Document()
	assert.False(t, ok)
}
