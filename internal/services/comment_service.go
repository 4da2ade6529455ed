package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// CommentService handles task comments
type CommentService struct {
	store *repository.Store
	audit recorder
}

// NewCommentService creates a new CommentService
func NewCommentService(store *repository.Store, audit *AuditService) *CommentService {
	return &CommentService{store: store, audit: recorder{now: audit.now}}
}

type CreateCommentInput struct {
	TaskID  uint64
	Content string
}

type UpdateCommentInput struct {
	Version uint64
	Content string
}

// existingTask checks a task reference carried in a payload
func existingTask(tx *repository.Store, taskID uint64) error {
	if taskID == 0 {
		return invalid("taskId", "is required")
	}
	if _, err := tx.Tasks.FindByID(taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("taskId", "task does not exist")
		}
		return fmt.Errorf("failed to find task: %w", err)
	}
	return nil
}

// Create adds a comment authored by the actor
func (s *CommentService) Create(actor Actor, input CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, invalid("content", "is required")
	}

	comment := &models.Comment{
		TaskID:  input.TaskID,
		UserID:  actor.UserID,
		Content: content,
		Version: 1,
	}
	err := s.store.Transaction(func(tx *repository.Store) error {
		if err := existingTask(tx, comment.TaskID); err != nil {
			return err
		}
		if err := tx.Comments.Create(comment); err != nil {
			return storeErr("comment", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityComment, comment.ID, models.AuditActionCreate, nil, comment)
	})
	if err != nil {
		return nil, txErr("comment", "create", err)
	}
	return comment, nil
}

func (s *CommentService) Get(id uint64) (*models.Comment, error) {
	comment, err := s.store.Comments.FindByID(id)
	if err != nil {
		return nil, storeErr("comment", "find", err)
	}
	return comment, nil
}

// ListByTask returns a task's comments oldest first
func (s *CommentService) ListByTask(taskID uint64, page repository.Page) ([]models.Comment, int64, error) {
	if _, err := s.store.Tasks.FindByID(taskID); err != nil {
		return nil, 0, storeErr("task", "find", err)
	}
	comments, total, err := s.store.Comments.ListByTask(taskID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// Update edits a comment's content
func (s *CommentService) Update(actor Actor, id uint64, input UpdateCommentInput) (*models.Comment, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, invalid("content", "cannot be empty")
	}

	var comment *models.Comment
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		comment, err = tx.Comments.FindByID(id)
		if err != nil {
			return storeErr("comment", "find", err)
		}
		if err := actor.requireOwnership(comment.UserID); err != nil {
			return err
		}
		before := *comment

		comment.Content = content
		comment.Version = input.Version
		if err := tx.Comments.Update(comment); err != nil {
			return storeErr("comment", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityComment, comment.ID, models.AuditActionUpdate, before, comment)
	})
	if err != nil {
		return nil, txErr("comment", "update", err)
	}
	return comment, nil
}

func (s *CommentService) Delete(actor Actor, id, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		comment, err := tx.Comments.FindByID(id)
		if err != nil {
			return storeErr("comment", "find", err)
		}
		if err := actor.requireOwnership(comment.UserID); err != nil {
			return err
		}

		before := *comment
		if version != 0 {
			comment.Version = version
		}
		if err := tx.Comments.Delete(comment); err != nil {
			return storeErr("comment", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityComment, comment.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("comment", "delete", err)
}
