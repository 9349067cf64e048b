package services

import (
	"context"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/models"

	"gorm.io/gorm"
)

type PostInput struct {
	Title      string `validate:"required,max=200"`
	Content    string `validate:"required"`
	CategoryID uint   `validate:"required"`
	Tags       []string
	IsDraft    bool
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
}

// ParseTags 解析逗号分隔的标签：去空白、去空项、去重，保留原有顺序
func ParseTags(raw string) []string {
	seen := make(map[string]bool)
	tags := make([]string, 0)
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '，' }) {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// CommentNode 评论树节点，Replies 按创建时间升序
type CommentNode struct {
	models.Comment
	Replies []*CommentNode
}

// PostDetail 详情页数据
type PostDetail struct {
	Post     *models.Post
	Comments []*CommentNode
	Total    int // 有效评论总数
}

type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) findActive(tx *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	if err := tx.Where("id = ? AND is_active = ?", id, true).First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func categoryExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// Create 以 author 身份发帖，并累加作者资料中的发帖数
func (s *PostService) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if author == nil {
		return nil, apperror.ErrUnauthorized
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		UserID:     author.ID,
		CategoryID: in.CategoryID,
		Tags:       in.Tags,
		IsDraft:    in.IsDraft,
		IsActive:   true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, in.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return adjustProfileCounter(tx, author.ID, "post_count", 1)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Get 读取一篇有效帖子（不计浏览量），用于编辑表单等场景
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	return s.findActive(s.db.WithContext(ctx).Preload("Category").Preload("User"), id)
}

// GetOwned 读取 user 本人的有效帖子
func (s *PostService) GetOwned(ctx context.Context, user *models.User, id uint) (*models.Post, error) {
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID {
		return nil, apperror.ErrForbidden
	}
	return post, nil
}

// Update 作者编辑帖子，覆盖标题、内容、分类和标签；作者不可更改
func (s *PostService) Update(ctx context.Context, editor *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.GetOwned(ctx, editor, id)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := categoryExists(tx, in.CategoryID); err != nil {
			return err
		}
		return tx.Model(post).
			Select("title", "content", "category_id", "tags", "is_draft").
			Updates(&models.Post{
				Title:      in.Title,
				Content:    in.Content,
				CategoryID: in.CategoryID,
				Tags:       in.Tags,
				IsDraft:    in.IsDraft,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete 逻辑删除帖子，仅作者可操作
func (s *PostService) Delete(ctx context.Context, user *models.User, id uint) error {
	post, err := s.GetOwned(ctx, user, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).UpdateColumn("is_active", false).Error; err != nil {
			return err
		}
		return adjustProfileCounter(tx, post.UserID, "post_count", -1)
	})
}

// RemoveByAdmin 管理员下架任意帖子
func (s *PostService) RemoveByAdmin(ctx context.Context, admin *models.User, id uint) error {
	if admin == nil {
		return apperror.ErrUnauthorized
	}
	if !admin.IsAdmin() {
		return apperror.ErrForbidden
	}
	post, err := s.findActive(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).UpdateColumn("is_active", false).Error; err != nil {
			return err
		}
		return adjustProfileCounter(tx, post.UserID, "post_count", -1)
	})
}

// TogglePin 管理员置顶/取消置顶
func (s *PostService) TogglePin(ctx context.Context, admin *models.User, id uint) (*models.Post, error) {
	if admin == nil {
		return nil, apperror.ErrUnauthorized
	}
	if !admin.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	post, err := s.findActive(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	post.IsPinned = !post.IsPinned
	if err := s.db.WithContext(ctx).Model(post).UpdateColumn("is_pinned", post.IsPinned).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// View 读取详情并使浏览数 +1。每次请求都计数，不按访客去重。
func (s *PostService) View(ctx context.Context, id uint) (*PostDetail, error) {
	tx := s.db.WithContext(ctx)
	post, err := s.findActive(tx.Preload("User").Preload("Category"), id)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, err
	}
	post.ViewCount++

	var comments []models.Comment
	err = tx.Preload("User").
		Where("post_id = ? AND is_active = ?", post.ID, true).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	return &PostDetail{
		Post:     post,
		Comments: BuildCommentTree(comments),
		Total:    len(comments),
	}, nil
}

// BuildCommentTree 根据 ParentID 组装评论树。
// 父评论不在列表中（已删除）时，回复提升为顶层以免整棵子树消失。
func BuildCommentTree(comments []models.Comment) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	ordered := make([]*CommentNode, len(comments))
	for i := range comments {
		node := &CommentNode{Comment: comments[i]}
		nodes[node.ID] = node
		ordered[i] = node
	}

	roots := make([]*CommentNode, 0)
	for _, node := range ordered {
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok && parent != node {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
