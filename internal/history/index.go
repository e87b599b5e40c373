package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// IndexEntry is the sqlite row backing rich history search. The text file
// remains the canonical record; the index only adds metadata.
type IndexEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index;index:idx_dir_created,priority:2"`
	UpdatedAt time.Time

	Command   string `gorm:"index"`
	Directory string `gorm:"index:idx_dir_created,priority:1"`
	SessionID string `gorm:"index"`
	ExitCode  sql.NullInt32
}

// Index is the supplementary search index over command history.
type Index struct {
	db *gorm.DB
}

// OpenIndex opens (or creates) the sqlite index at dbFilePath.
func OpenIndex(dbFilePath string) (*Index, error) {
	// busy_timeout and the small pool guard against the file living on
	// slow or networked storage
	connectionString := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=temp_store(2)",
		dbFilePath,
	)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, &PersistenceError{Op: "open index", Path: dbFilePath, Err: err}
	}
	if err := db.AutoMigrate(&IndexEntry{}); err != nil {
		return nil, &PersistenceError{Op: "migrate index", Path: dbFilePath, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Index{db: db}, nil
}

func (idx *Index) Close() error {
	if idx == nil {
		return nil
	}
	sqlDB, err := idx.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start records a command at execution start, before its exit status is
// known.
func (idx *Index) Start(command, directory, sessionID string) (*IndexEntry, error) {
	if idx == nil {
		return nil, nil
	}
	entry := IndexEntry{Command: command, Directory: directory, SessionID: sessionID}
	if result := idx.db.Create(&entry); result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

// Finish attaches the exit status once the command completed.
func (idx *Index) Finish(entry *IndexEntry, exitCode int) error {
	if idx == nil || entry == nil {
		return nil
	}
	entry.ExitCode = sql.NullInt32{Int32: int32(exitCode), Valid: true}
	return idx.db.Save(entry).Error
}

// Recent returns up to limit entries, newest first, optionally scoped to
// one directory. A limit of 0 returns everything.
func (idx *Index) Recent(directory string, limit int) ([]IndexEntry, error) {
	if idx == nil {
		return nil, nil
	}
	var entries []IndexEntry
	db := idx.db
	if directory != "" {
		db = db.Where("directory = ?", directory)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	// id breaks created_at ties between commands indexed back to back
	if result := db.Order("created_at desc, id desc").Find(&entries); result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// All returns every indexed entry, newest first.
func (idx *Index) All() ([]IndexEntry, error) {
	return idx.Recent("", 0)
}
