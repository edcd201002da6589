// Package mocks holds go.uber.org/mock doubles for the feed
// assembler's store-facing interfaces, generated the way the teacher
// generates its internal/services/mocks package.
package mocks

//go:generate go run go.uber.org/mock/mockgen -destination=mock_post_store.go -package=mocks github.com/bionicotaku/lingo-feed-ranker/internal/feed PostStore
//go:generate go run go.uber.org/mock/mockgen -destination=mock_stats_store.go -package=mocks github.com/bionicotaku/lingo-feed-ranker/internal/feed StatsStore
//go:generate go run go.uber.org/mock/mockgen -destination=mock_profile_store.go -package=mocks github.com/bionicotaku/lingo-feed-ranker/internal/feed ProfileStore
