package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"tieba/internal/models"

	"gorm.io/gorm"
)

// PageSize 列表与搜索每页固定 12 条
const PageSize = 12

const (
	SortLatest    = "latest"
	SortHot       = "hot"
	SortRecommend = "recommend"
)

const (
	HotPostsIndex    = 5
	HotPostsCategory = 10
)

// NormalizeSort 无法识别的排序一律回退为 latest
func NormalizeSort(sort string) string {
	switch sort {
	case SortHot, SortRecommend:
		return sort
	default:
		return SortLatest
	}
}

// orderFor recommend 目前与 hot 使用相同排序
func orderFor(sort string) string {
	switch NormalizeSort(sort) {
	case SortHot, SortRecommend:
		return "posts.view_count DESC, posts.like_count DESC, posts.created_at DESC, posts.id DESC"
	default:
		return "posts.created_at DESC, posts.id DESC"
	}
}

type ListQuery struct {
	CategoryID uint
	Sort       string
	Query      string
	Page       string // 原始 page 参数，非法值按第 1 页处理
}

type Page struct {
	Posts      []models.Post
	Number     int
	TotalPages int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevNumber int
	NextNumber int
	Sort       string
}

type CategoryWithCount struct {
	models.Category
	PostCount int64
}

type SiteStats struct {
	TotalPosts int64
	TotalUsers int64
}

type ListingService struct {
	db *gorm.DB
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

// ClampPage 解析页码并限制在 [1, totalPages]
func ClampPage(raw string, totalPages int) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page
}

// TotalPages 无结果时也至少有 1 页
func TotalPages(total int64, perPage int) int {
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '\' 使用
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *ListingService) filtered(ctx context.Context, q ListQuery) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Post{}).Where("posts.is_active = ?", true)
	if q.CategoryID != 0 {
		tx = tx.Where("posts.category_id = ?", q.CategoryID)
	}
	if query := strings.TrimSpace(q.Query); query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		tx = tx.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return tx
}

// List 返回符合条件的一页帖子
func (s *ListingService) List(ctx context.Context, q ListQuery) (*Page, error) {
	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, err
	}

	totalPages := TotalPages(total, PageSize)
	number := ClampPage(q.Page, totalPages)

	var posts []models.Post
	err := s.filtered(ctx, q).
		Preload("User").Preload("Category").
		Order(orderFor(q.Sort)).
		Limit(PageSize).
		Offset((number - 1) * PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Posts:      posts,
		Number:     number,
		TotalPages: totalPages,
		Total:      total,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
		PrevNumber: number - 1,
		NextNumber: number + 1,
		Sort:       NormalizeSort(q.Sort),
	}, nil
}

// Categories 返回全部分类及其有效帖子数，按名称排序
func (s *ListingService) Categories(ctx context.Context) ([]CategoryWithCount, error) {
	var out []CategoryWithCount
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.*, COUNT(posts.id) AS post_count").
		Joins("LEFT JOIN posts ON posts.category_id = categories.id AND posts.is_active = ?", true).
		Group("categories.id").
		Order("categories.name ASC, categories.id ASC").
		Scan(&out).Error
	return out, err
}

func (s *ListingService) Category(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// HotPosts 侧边栏热门帖子，与当前筛选条件无关
func (s *ListingService) HotPosts(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("view_count DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Recent 最新的有效帖子，供 RSS 与 sitemap 使用
func (s *ListingService) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Category").
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (s *ListingService) Stats(ctx context.Context) (*SiteStats, error) {
	stats := &SiteStats{}
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("is_active = ?", true).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
