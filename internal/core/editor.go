package core

import (
	"github.com/atinylittleshell/ghostwrite/internal/agents"
	"github.com/atinylittleshell/ghostwrite/internal/generate"
	"github.com/atinylittleshell/ghostwrite/internal/notes"
	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/atinylittleshell/ghostwrite/pkg/docedit"
	"github.com/atinylittleshell/ghostwrite/pkg/ghost"
	"github.com/atinylittleshell/ghostwrite/pkg/notepad"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// LoadSettings reads the settings file and appends the agents defined as
// markdown files. A file agent replaces a configured agent with the same id.
func LoadSettings(settingsFile string, agentsDir string, logger *zap.Logger) (settings.Settings, error) {
	s, err := settings.Load(settingsFile, logger)
	if err != nil {
		return s, err
	}
	s.Agents = append(s.Agents, agents.LoadDir(agentsDir, logger)...)
	return s, nil
}

// DocumentSaver writes the editor content back to one stored document.
type DocumentSaver struct {
	store *notes.Store
	doc   notes.Document
}

var _ notepad.Saver = (*DocumentSaver)(nil)

func NewDocumentSaver(store *notes.Store, doc notes.Document) *DocumentSaver {
	return &DocumentSaver{store: store, doc: doc}
}

// Save renames the document when title changed. An empty title keeps the
// current one.
func (s *DocumentSaver) Save(title string, blocks []docedit.Block) error {
	doc := s.doc
	if title != "" {
		doc.Title = title
	}
	saved, err := s.store.SaveDocument(doc, ToNoteBlocks(blocks))
	if err != nil {
		return err
	}
	s.doc = saved
	return nil
}

func ToNoteBlocks(blocks []docedit.Block) []notes.Block {
	return lo.Map(blocks, func(b docedit.Block, _ int) notes.Block {
		return notes.Block{ID: b.ID, Content: b.Text}
	})
}

func ToEditorBlocks(blocks []notes.Block) []docedit.Block {
	return lo.Map(blocks, func(b notes.Block, _ int) docedit.Block {
		return docedit.Block{ID: b.ID, Text: b.Content}
	})
}

// RunEditor opens (or creates) the document titled title and runs the editor
// until the user quits.
func RunEditor(title string, logger *zap.Logger) error {
	load := func() (settings.Settings, error) {
		return LoadSettings(SettingsFile(), AgentsDir(), logger)
	}
	s, err := load()
	if err != nil {
		logger.Warn("using default settings", zap.Error(err))
		s = settings.Default()
	}

	store, err := notes.NewStore(NotesFile())
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	doc, blocks, created, err := store.OpenDocument(title)
	if err != nil {
		return err
	}
	logger.Info("opened document",
		zap.String("title", doc.Title),
		zap.Bool("created", created),
		zap.Int("blocks", len(blocks)),
	)

	cfg := notepad.Config{
		Title:     doc.Title,
		Blocks:    ToEditorBlocks(blocks),
		Settings:  s,
		Generator: generate.NewClient(s.Generation, logger),
		NewGenerator: func(g settings.Generation) ghost.Generator {
			return generate.NewClient(g, logger)
		},
		Enricher: notes.NewEnricher(store, notes.EnrichOptions{}, logger),
		Saver:    NewDocumentSaver(store, doc),
		Logger:   logger,
	}

	watcher, err := settings.Watch(SettingsFile(), []string{AgentsDir()}, load, logger)
	if err != nil {
		logger.Warn("settings will not reload while running", zap.Error(err))
	} else {
		defer func() {
			_ = watcher.Close()
		}()
		cfg.Changes = watcher.Changes()
	}

	return notepad.Run(cfg)
}
