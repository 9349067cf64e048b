package services

import (
	"context"
	"errors"
	"fmt"
	"tieba/internal/apperror"
	"tieba/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EngagementKind string

const (
	KindLike     EngagementKind = "like"
	KindFavorite EngagementKind = "favorite"
)

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// ToggleResult 切换后的状态与最新计数
type ToggleResult struct {
	Engaged bool
	Count   uint
}

// EngagementService 维护点赞/收藏关系行与目标上的冗余计数
type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

type counterRow struct {
	Count uint
}

// engagementTable 描述一种 (kind, target) 组合对应的表结构
type engagementTable struct {
	targetModel interface{}
	relation    interface{}
	fkColumn    string
	counter     string
}

func tableFor(kind EngagementKind, target TargetType) (*engagementTable, error) {
	switch {
	case kind == KindLike && target == TargetPost:
		return &engagementTable{&models.Post{}, &models.Like{}, "post_id", "like_count"}, nil
	case kind == KindLike && target == TargetComment:
		return &engagementTable{&models.Comment{}, &models.Like{}, "comment_id", "like_count"}, nil
	case kind == KindFavorite && target == TargetPost:
		return &engagementTable{&models.Post{}, &models.Favorite{}, "post_id", "favorite_count"}, nil
	}
	return nil, fmt.Errorf("%w: cannot %s a %s", apperror.ErrInvalidInput, kind, target)
}

func (s *engagementTable) newRelation(userID, targetID uint) interface{} {
	id := targetID
	switch s.relation.(type) {
	case *models.Favorite:
		return &models.Favorite{UserID: userID, PostID: targetID}
	default:
		if s.fkColumn == "comment_id" {
			return &models.Like{UserID: userID, CommentID: &id}
		}
		return &models.Like{UserID: userID, PostID: &id}
	}
}

// Toggle 切换 user 对目标的点赞或收藏。
// 整个 读-判断-写 过程在一个事务内完成，目标行以 FOR UPDATE 加锁，
// 同一目标上的并发切换因此串行执行，计数始终等于关系行数。
func (s *EngagementService) Toggle(ctx context.Context, user *models.User, target TargetType, targetID uint, kind EngagementKind) (*ToggleResult, error) {
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	tbl, err := tableFor(kind, target)
	if err != nil {
		return nil, err
	}

	result := &ToggleResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter counterRow
		query := tx.Model(tbl.targetModel).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select(tbl.counter+" AS count").
			Where("id = ? AND is_active = ?", targetID, true)
		if target == TargetComment {
			// 帖子被删除后其下评论不可再互动
			query = query.Where("post_id IN (?)", s.db.Model(&models.Post{}).Select("id").Where("is_active = ?", true))
		}
		locked := query.Take(&counter)
		if errors.Is(locked.Error, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		if locked.Error != nil {
			return locked.Error
		}

		del := tx.Where("user_id = ? AND "+tbl.fkColumn+" = ?", user.ID, targetID).
			Delete(tbl.relation)
		if del.Error != nil {
			return del.Error
		}

		var delta clause.Expr
		if del.RowsAffected > 0 {
			result.Engaged = false
			delta = gorm.Expr("CASE WHEN " + tbl.counter + " > 0 THEN " + tbl.counter + " - 1 ELSE 0 END")
		} else {
			if err := tx.Create(tbl.newRelation(user.ID, targetID)).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperror.ErrConflict
				}
				return err
			}
			result.Engaged = true
			delta = gorm.Expr(tbl.counter + " + 1")
		}

		if err := tx.Model(tbl.targetModel).
			Where("id = ?", targetID).
			UpdateColumn(tbl.counter, delta).Error; err != nil {
			return err
		}

		if err := tx.Model(tbl.targetModel).
			Select(tbl.counter+" AS count").
			Where("id = ?", targetID).
			Take(&counter).Error; err != nil {
			return err
		}
		result.Count = counter.Count
		return nil
	})
	if err != nil {
		return nil, err
	}

	engagementToggles.WithLabelValues(string(kind), string(target), stateLabel(result.Engaged)).Inc()
	return result, nil
}

// IsEngaged 查询 user 是否已点赞/收藏目标，未登录视为 false
func (s *EngagementService) IsEngaged(ctx context.Context, user *models.User, target TargetType, targetID uint, kind EngagementKind) (bool, error) {
	if user == nil {
		return false, nil
	}
	tbl, err := tableFor(kind, target)
	if err != nil {
		return false, err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(tbl.relation).
		Where("user_id = ? AND "+tbl.fkColumn+" = ?", user.ID, targetID).
		Count(&count).Error
	return count > 0, err
}

// LikedCommentIDs 返回 user 在给定评论中已点赞的 ID 集合，用于详情页批量高亮
func (s *EngagementService) LikedCommentIDs(ctx context.Context, user *models.User, commentIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool)
	if user == nil || len(commentIDs) == 0 {
		return liked, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND comment_id IN ?", user.ID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func stateLabel(engaged bool) string {
	if engaged {
		return "engaged"
	}
	return "disengaged"
}
