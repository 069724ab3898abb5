// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, transactions
//	├── articles/        # Saved article CRUD, read/archive flags
//	├── tags/            # Tags and the article_tags join table
//	├── assets/          # Cached image blobs
//	├── importjobs/      # Import job lifecycle and counters
//	└── settings/        # Key/value application settings
//
// # Concurrency
//
// The connection pool is pinned to a single open connection. SQLite then
// serializes every transaction, which is what the tagging operations rely on
// for their all-or-nothing guarantees. Code running inside a transaction must
// use the *gorm.DB handed to the callback; using the outer handle would wait
// for the connection the transaction already holds.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./readlater.db")
//
//	articlesRepo := articles.NewRepository(db.DB)
//	tagsRepo := tags.NewRepository(db.DB)
//
//	article, err := articlesRepo.GetArticleByID(ctx, id)
//	err = tagsRepo.AddTagsToArticle(ctx, article.ID, []string{"go", "later"})
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add the entity to Migrate in database.go
//  5. Add compile-time interface checks in internal/interfaces/checks.go
package database
