package service

import (
	"context"
	"errors"
	"log"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"

	"gorm.io/gorm"
)

// EntryService 条目本身不属于一致性引擎，但它的增删会牵动publicEntriesCount
// 和可见性记录，所以删除后同样走清理+owner定向对账
type EntryService struct {
	entries EntryStore
	vis     VisibilityStore
	cache   StatsCache
	rec     *ReconcileService
}

func NewEntryService(entries EntryStore, vis VisibilityStore, cache StatsCache, rec *ReconcileService) *EntryService {
	return &EntryService{
		entries: entries,
		vis:     vis,
		cache:   cache,
		rec:     rec,
	}
}

func (s *EntryService) Create(ctx context.Context, authorID uint64, title, content string) (*model.Entry, error) {
	if authorID == 0 || title == "" {
		return nil, pkg.ErrInvalidInput
	}
	entry := &model.Entry{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, pkg.StoreError("create entry", err)
	}
	// journey整体公开时新entry直接计入公开数
	s.afterOwnerMutation(ctx, authorID)
	return entry, nil
}

func (s *EntryService) Get(ctx context.Context, id uint64) (*model.Entry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.ErrEntryNotFound
		}
		return nil, pkg.StoreError("find entry", err)
	}
	return entry, nil
}

func (s *EntryService) ListByAuthor(ctx context.Context, authorID uint64, cursor uint64, limit int) ([]model.Entry, uint64, error) {
	return s.entries.ListByAuthor(ctx, authorID, cursor, limit)
}

// Delete 删entry并同步清掉它的可见性记录；两步各自提交，
// 记录清理失败留给孤儿清理通道
func (s *EntryService) Delete(ctx context.Context, authorID, entryID uint64) error {
	if authorID == 0 || entryID == 0 {
		return pkg.ErrInvalidInput
	}
	affected, err := s.entries.Delete(ctx, entryID, authorID)
	if err != nil {
		return pkg.StoreError("delete entry", err)
	}
	if affected == 0 {
		return pkg.ErrEntryNotFound
	}
	if _, err = s.vis.DeleteForEntry(ctx, entryID); err != nil {
		log.Printf("delete visibility entry=%d err: %v", entryID, err)
	}
	s.afterOwnerMutation(ctx, authorID)
	return nil
}

func (s *EntryService) afterOwnerMutation(ctx context.Context, ownerID uint64) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("stats cache invalidate owner=%d err: %v", ownerID, err)
	}
	if _, err := s.rec.Targeted(ctx, []uint64{ownerID}); err != nil {
		log.Printf("targeted reconcile owner=%d err: %v", ownerID, err)
	}
}
