package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/models"
)

// watchDebounce absorbs the burst of events a single save or copy produces.
const watchDebounce = 2 * time.Second

// chunkNamespace scopes the name-based UUIDs used as chunk keys.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("pdfrag/chunk"))

// Indexer loads a document into the vector store.
type Indexer interface {
	Ingest(ctx context.Context, path string) (int, error)
}

// TextExtractor returns the plain text of a file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// IngestionService runs load, split, embed and upsert for one file.
type IngestionService struct {
	extractor   TextExtractor
	splitter    *Splitter
	embedder    Embedder
	store       VectorStore
	concurrency int
}

func NewIngestionService(extractor TextExtractor, splitter *Splitter, embedder Embedder, store VectorStore, concurrency int) *IngestionService {
	return &IngestionService{
		extractor:   extractor,
		splitter:    splitter,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
	}
}

// Ingest indexes the file at path and returns the number of chunks written.
// Any failing step aborts the whole run; chunks already upserted stay.
// Chunk keys are derived from path, position and text, so re-indexing an
// unchanged file overwrites the same keys.
func (s *IngestionService) Ingest(ctx context.Context, path string) (int, error) {
	hash, err := calculateFileHash(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	text, err := s.extractor.ExtractText(path)
	if err != nil {
		return 0, fmt.Errorf("extract text from %s: %w", path, err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("extract text from %s: document contains no text", path)
	}

	pieces, err := s.splitter.Split(text)
	if err != nil {
		return 0, fmt.Errorf("split text: %w", err)
	}
	log.Info().Str("path", path).Int("chunks", len(pieces)).Msg("INDEXER: split document")

	chunks := make([]models.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.DocumentChunk{
			ID:   chunkID(path, i, piece),
			Text: piece,
			Metadata: map[string]string{
				"source":      path,
				"chunk_index": strconv.Itoa(i),
				"file_hash":   hash,
			},
		}
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	if err := s.store.Upsert(ctx, chunks, vectors, s.concurrency); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	log.Info().Str("path", path).Int("chunks", len(chunks)).Msg("INDEXER: document indexed")
	return len(chunks), nil
}

// WatchFile re-runs Ingest whenever path is written or re-created. It blocks
// until ctx is cancelled.
func (s *IngestionService) WatchFile(ctx context.Context, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and copy tools often replace the file,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	log.Info().Str("path", target).Msg("WATCHER: watching document")

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Debug().Str("event", event.String()).Msg("WATCHER: document changed")
				timer.Reset(watchDebounce)
			}

		case <-timer.C:
			n, err := s.Ingest(ctx, target)
			if err != nil {
				log.Error().Err(err).Str("path", target).Msg("WATCHER: re-index failed")
				continue
			}
			log.Info().Str("path", target).Int("chunks", n).Msg("WATCHER: re-indexed document")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("WATCHER: error")

		case <-ctx.Done():
			log.Info().Msg("WATCHER: context cancelled, shutting down watcher")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

func chunkID(source string, index int, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(source+"\x00"+strconv.Itoa(index)+"\x00"+text)).String()
}

func calculateFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
