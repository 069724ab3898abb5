// Package importers turns a bookmark export into saved articles.
//
// # Architecture
//
// An import runs in two steps:
//
//	Upload → ParseBookmarks → ValidateExport → CreateJob (pending)
//	Run → FetchMany → Extract → CreateArticle → CacheArticleAssets → AddTagsToArticle
//
// Prepare does the first step synchronously so an invalid upload is rejected
// before any job exists. Run does the slow part, usually from a background
// task, and settles each item independently: fetch and save errors become
// job failures, asset and tag errors are only logged.
//
// # Job Accounting
//
// Every settled item increments exactly one of the job's completed or failed
// counters. When the counters themselves cannot be written the run stops
// processing further items and the job is marked failed.
//
// # Usage
//
//	pipeline := importers.NewPipeline(importers.Dependencies{
//		Fetcher:   fetcher.NewClient(fetcher.Config{}),
//		Extractor: extractor.New(),
//		Articles:  articlesRepo,
//		Tags:      tagsRepo,
//		Assets:    assets.NewCache(assetsRepo, assets.Config{}, logger),
//		Jobs:      jobsRepo,
//	}, importers.Options{})
//
//	job, items, err := pipeline.Prepare(ctx, "ril_export.html", file)
//	result, err := pipeline.Run(ctx, job.ID, items, nil)
package importers
