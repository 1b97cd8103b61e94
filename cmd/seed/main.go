package main

import (
	"context"
	"log"
	"time"

	"compliance-qa-be/internal/config"
	"compliance-qa-be/internal/constant"
	"compliance-qa-be/internal/entity"
	"compliance-qa-be/internal/repository/unitofwork"
	"compliance-qa-be/pkg/contentstore"
	"compliance-qa-be/pkg/database"

	"github.com/google/uuid"
)

type seedDocument struct {
	title   string
	docType string
	tags    []string
	content string
}

var seedDocuments = []seedDocument{
	{
		title:   "Data Privacy Policy",
		docType: constant.DocumentTypePolicy,
		tags:    []string{"privacy", "gdpr"},
		content: "Section 1: Personal data may only be processed with a documented legal basis.\n" +
			"Section 4.2: Data incidents must be reported to the privacy officer within 24 hours of discovery.\n" +
			"Section 5: Retention of personal data is limited to seven years unless law requires longer.",
	},
	{
		title:   "Access Control Guideline",
		docType: constant.DocumentTypeGuideline,
		tags:    []string{"security", "access"},
		content: "Section 2: All production access requires multi-factor authentication.\n" +
			"Section 3.1: Access reviews run quarterly; stale accounts are disabled after 90 days of inactivity.",
	},
	{
		title:   "Annual Security Audit 2025",
		docType: constant.DocumentTypeAudit,
		tags:    []string{"audit", "2025"},
		content: "Finding A.1: Encryption key rotation exceeded the 90-day policy window in two services.\n" +
			"Finding B.3: Incident response drills were completed on schedule.",
	},
}

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	blobBackend, err := contentstore.NewFileBackend(cfg.Content.BlobDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob dir: %v", err)
	}
	contents := contentstore.NewRepository(blobBackend, nil)

	uowFactory := unitofwork.NewRepositoryFactory(db)
	uow := uowFactory.NewUnitOfWork(context.Background())
	ctx := context.Background()

	for _, sd := range seedDocuments {
		doc := entity.Document{
			Id:        uuid.New(),
			Title:     sd.title,
			DocType:   sd.docType,
			Tags:      sd.tags,
			CreatedAt: time.Now(),
		}
		if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
			log.Fatalf("Failed to seed document %q: %v", sd.title, err)
		}
		if err := contents.Put(ctx, doc.Id.String(), sd.content); err != nil {
			log.Fatalf("Failed to write content for %q: %v", sd.title, err)
		}
		log.Printf("Seeded %q (%s) as %s", sd.title, sd.docType, doc.Id)
	}

	log.Println("✅ Seed complete. Run the indexing consumer or re-upload to build embeddings.")
}
