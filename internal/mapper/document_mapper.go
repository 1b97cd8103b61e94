package mapper

import (
	"strings"
	"time"

	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	var tags []string
	if d.Tags != "" {
		tags = strings.Split(d.Tags, ",")
	}

	return &entity.Document{
		Id:        d.Id,
		Title:     d.Title,
		DocType:   d.DocType,
		Tags:      tags,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	out := &model.Document{
		Id:        d.Id,
		Title:     d.Title,
		DocType:   d.DocType,
		Tags:      strings.Join(d.Tags, ","),
		CreatedAt: d.CreatedAt,
	}
	if d.UpdatedAt != nil {
		out.UpdatedAt = *d.UpdatedAt
	}
	return out
}
