package database

// Store bundles the repositories over one database handle. Components take
// the Store (or a single repository) explicitly; there is no package-level
// database state.
type Store struct {
	DB         *DB
	Feeds      *FeedRepository
	Articles   *ArticleRepository
	Categories *CategoryRepository
	Chapters   *ChapterRepository
	Playback   *PlaybackRepository
}

// NewStore opens the database at path, runs schema migrations and returns
// the repository bundle.
func NewStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{
		DB:         db,
		Feeds:      NewFeedRepository(db),
		Articles:   NewArticleRepository(db),
		Categories: NewCategoryRepository(db),
		Chapters:   NewChapterRepository(db),
		Playback:   NewPlaybackRepository(db),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.DB.Close()
}
