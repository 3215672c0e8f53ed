package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/projektfire/internal/slug"
	"gorm.io/gorm"
)

// SeedResult counts the rows the seed actually inserted.
type SeedResult struct {
	Categories int
	Tags       int
	Pages      int
}

type seedCategory struct {
	name        string
	description string
}

var (
	seedCategories = []seedCategory{
		{"Oszczędzanie", "Porady dotyczące oszczędzania pieniędzy"},
		{"Inwestowanie", "Podstawy i strategie inwestowania"},
		{"FIRE", "Niezależność finansowa i wczesna emerytura"},
		{"Budżet domowy", "Zarządzanie budżetem domowym"},
	}
	seedTags = []string{"beginner", "ETF", "giełda", "konto maklerskie", "poduszka finansowa", "IKE/IKZE"}

	seedAboutPage = PageInput{
		Title:           "O mnie",
		ContentMD:       "# O mnie\n\nTutaj pojawi się opis autora bloga Projekt FIRE.",
		MetaTitle:       "O mnie | Projekt FIRE",
		MetaDescription: "Poznaj autora bloga Projekt FIRE - o niezależności finansowej i inwestowaniu.",
	}
)

// SeedService 写入初始分类、标签与“关于我”页面。重复执行不会产生重复数据。
type SeedService struct {
	categories *CategoryService
	tags       *TagService
	pages      *PageService
}

// NewSeedService creates a SeedService instance.
func NewSeedService(gdb *gorm.DB) *SeedService {
	return &SeedService{
		categories: NewCategoryService(gdb),
		tags:       NewTagService(gdb),
		pages:      NewPageService(gdb),
	}
}

// Run inserts whatever part of the sample data is missing.
func (s *SeedService) Run(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	for _, item := range seedCategories {
		// Create would suffix the slug, so look the category up first.
		_, err := s.categories.GetBySlug(ctx, slug.Generate(item.name))
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrCategoryNotFound) {
			return result, fmt.Errorf("seed category %q: %w", item.name, err)
		}
		if _, err := s.categories.Create(ctx, CategoryInput{Name: item.name, Description: item.description}); err != nil {
			return result, fmt.Errorf("seed category %q: %w", item.name, err)
		}
		result.Categories++
	}

	for _, name := range seedTags {
		_, err := s.tags.Create(ctx, name)
		switch {
		case err == nil:
			result.Tags++
		case errors.Is(err, ErrTagExists):
		default:
			return result, fmt.Errorf("seed tag %q: %w", name, err)
		}
	}

	if _, err := s.pages.GetBySlug(ctx, AboutPageSlug); err != nil {
		if !errors.Is(err, ErrPageNotFound) {
			return result, fmt.Errorf("seed page: %w", err)
		}
		if _, err := s.pages.Save(ctx, AboutPageSlug, seedAboutPage); err != nil {
			return result, fmt.Errorf("seed page: %w", err)
		}
		result.Pages++
	}

	return result, nil
}
