// Package notes stores documents as blocks in SQLite and answers the
// related-note queries used to enrich prompts.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/prompt"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

type Document struct {
	ID        string    `gorm:"primaryKey"`
	Title     string    `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`
}

type Block struct {
	ID         string `gorm:"primaryKey"`
	DocumentID string `gorm:"index"`
	Position   int
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index"`
}

// Ref records that block BlockID references block DefBlockID.
type Ref struct {
	ID         uint   `gorm:"primarykey"`
	BlockID    string `gorm:"index"`
	DefBlockID string `gorm:"index"`
}

// Hit is a block returned by a query together with its document title.
type Hit struct {
	BlockID   string
	Content   string
	Title     string
	UpdatedAt time.Time
}

// DocumentSummary is a listing row.
type DocumentSummary struct {
	Document
	Blocks int
}

type blockCount struct {
	DocumentID string
	Count      int
}

func NewStore(dbFilePath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening notes database: %w", err)
	}

	if err := db.AutoMigrate(&Document{}, &Block{}, &Ref{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenDocument returns the document with title, creating an empty one when it
// does not exist yet.
func (s *Store) OpenDocument(title string) (Document, []Block, bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Document{}, nil, false, errors.New("document title is empty")
	}

	var doc Document
	err := s.db.Where("title = ?", title).First(&doc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		doc = Document{ID: uuid.NewString(), Title: title}
		if err := s.db.Create(&doc).Error; err != nil {
			return Document{}, nil, false, err
		}
		return doc, nil, true, nil
	case err != nil:
		return Document{}, nil, false, err
	}

	blocks, err := s.Blocks(doc.ID)
	if err != nil {
		return Document{}, nil, false, err
	}
	return doc, blocks, false, nil
}

// Blocks returns a document's blocks in order.
func (s *Store) Blocks(documentID string) ([]Block, error) {
	var blocks []Block
	result := s.db.Where("document_id = ?", documentID).Order("position asc").Find(&blocks)
	if result.Error != nil {
		return nil, result.Error
	}
	return blocks, nil
}

// SaveDocument replaces the stored blocks of a document and re-indexes the
// block references they contain.
func (s *Store) SaveDocument(doc Document, blocks []Block) (Document, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		doc.UpdatedAt = time.Now()
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}

		var oldIDs []string
		if err := tx.Model(&Block{}).Where("document_id = ?", doc.ID).Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if len(oldIDs) > 0 {
			if err := tx.Where("block_id IN ?", oldIDs).Delete(&Ref{}).Error; err != nil {
				return err
			}
		}

		keep := make([]string, 0, len(blocks))
		var refs []Ref
		for i := range blocks {
			blocks[i].DocumentID = doc.ID
			blocks[i].Position = i
			keep = append(keep, blocks[i].ID)
			for _, id := range prompt.ReferencedIDs(blocks[i].Content) {
				refs = append(refs, Ref{BlockID: blocks[i].ID, DefBlockID: id})
			}
		}

		removed := tx.Where("document_id = ?", doc.ID)
		if len(keep) > 0 {
			removed = removed.Where("id NOT IN ?", keep)
		}
		if err := removed.Delete(&Block{}).Error; err != nil {
			return err
		}

		if len(blocks) > 0 {
			upsert := clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"document_id", "position", "content", "updated_at"}),
			}
			if err := tx.Clauses(upsert).Create(&blocks).Error; err != nil {
				return err
			}
		}
		if len(refs) > 0 {
			if err := tx.Create(&refs).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("failed to save document %q: %w", doc.Title, err)
	}
	return doc, nil
}

// ListDocuments returns documents, most recently updated first.
func (s *Store) ListDocuments(limit int) ([]DocumentSummary, error) {
	var docs []Document
	if err := s.db.Order("updated_at desc").Limit(limit).Find(&docs).Error; err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, nil
	}

	var counts []blockCount
	ids := lo.Map(docs, func(d Document, _ int) string { return d.ID })
	err := s.db.Model(&Block{}).
		Select("document_id, COUNT(*) AS count").
		Where("document_id IN ?", ids).
		Group("document_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byDoc := lo.SliceToMap(counts, func(c blockCount) (string, int) {
		return c.DocumentID, c.Count
	})

	return lo.Map(docs, func(d Document, _ int) DocumentSummary {
		return DocumentSummary{Document: d, Blocks: byDoc[d.ID]}
	}), nil
}

// SearchBlocks finds blocks containing keyword, newest first.
func (s *Store) SearchBlocks(ctx context.Context, keyword string, limit int) ([]Hit, error) {
	return s.hits(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where(`content LIKE ? ESCAPE '\'`, "%"+escapeLike(keyword)+"%")
	})
}

// Backlinks finds blocks that reference blockID.
func (s *Store) Backlinks(ctx context.Context, blockID string, limit int) ([]Hit, error) {
	return s.hits(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)",
			s.db.Model(&Ref{}).Select("block_id").Where("def_block_id = ?", blockID))
	})
}

// RecentBlocks returns blocks updated since the given time.
func (s *Store) RecentBlocks(ctx context.Context, since time.Time, limit int) ([]Hit, error) {
	return s.hits(ctx, limit, func(db *gorm.DB) *gorm.DB {
		return db.Where("updated_at > ?", since)
	})
}

func (s *Store) hits(ctx context.Context, limit int, where func(*gorm.DB) *gorm.DB) ([]Hit, error) {
	db := s.db.WithContext(ctx)

	var blocks []Block
	result := where(db.Model(&Block{})).
		Where("content <> ''").
		Order("updated_at desc").
		Limit(limit).
		Find(&blocks)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	var docs []Document
	docIDs := lo.Uniq(lo.Map(blocks, func(b Block, _ int) string { return b.DocumentID }))
	if err := db.Where("id IN ?", docIDs).Find(&docs).Error; err != nil {
		return nil, err
	}
	titles := lo.SliceToMap(docs, func(d Document) (string, string) { return d.ID, d.Title })

	return lo.Map(blocks, func(b Block, _ int) Hit {
		return Hit{
			BlockID:   b.ID,
			Content:   b.Content,
			Title:     titles[b.DocumentID],
			UpdatedAt: b.UpdatedAt,
		}
	}), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
