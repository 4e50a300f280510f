package app

import (
	_ "github.com/mattn/go-sqlite3"

	"database/sql"
	"log"

	"github.com/google/uuid"
	// use deadlock detector mutexes here since the journal is written
	// from many loader goroutines at once
	sync "github.com/sasha-s/go-deadlock"
)

const DbDebug bool = false

// Journal records soft decode failures in sqlite so corrupted assets can
// be listed and re-fetched later. It satisfies dataset.FailureJournal.
type Journal struct {
	db *sql.DB
	session string
	mu sync.Mutex
}

func NewJournal(fname string) (*Journal, error) {
	sdb, err := sql.Open("sqlite3", fname)
	if err != nil {
		return nil, err
	}
	journal := &Journal{
		db: sdb,
		session: uuid.New().String(),
	}
	journal.exec(`CREATE TABLE IF NOT EXISTS decode_failures (
		id INTEGER PRIMARY KEY ASC,
		session TEXT,
		idx INTEGER,
		path TEXT,
		trial INTEGER,
		error TEXT,
		time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return journal, nil
}

func (j *Journal) Session() string {
	return j.session
}

func (j *Journal) Close() {
	j.db.Close()
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}

func (j *Journal) exec(q string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if DbDebug {
		log.Printf("[journal] Exec: %v", q)
	}
	_, err := j.db.Exec(q, args...)
	checkErr(err)
}

// RecordFailure stores one failed decode attempt.
func (j *Journal) RecordFailure(index int, path string, trial int, message string) {
	j.exec(
		"INSERT INTO decode_failures (session, idx, path, trial, error) VALUES (?, ?, ?, ?, ?)",
		j.session, index, path, trial, message,
	)
}

type Failure struct {
	Index int
	Path string
	Trial int
	Error string
	Time string
}

// ListRecent returns up to limit failures from this session, newest first.
func (j *Journal) ListRecent(limit int) []Failure {
	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.Query(
		"SELECT idx, path, trial, error, time FROM decode_failures WHERE session = ? ORDER BY id DESC LIMIT ?",
		j.session, limit,
	)
	checkErr(err)
	defer rows.Close()
	var failures []Failure
	for rows.Next() {
		var f Failure
		checkErr(rows.Scan(&f.Index, &f.Path, &f.Trial, &f.Error, &f.Time))
		failures = append(failures, f)
	}
	return failures
}

// CountByPath aggregates failure counts per asset path across all
// sessions, worst first.
func (j *Journal) CountByPath() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.Query("SELECT path, COUNT(*) FROM decode_failures GROUP BY path")
	checkErr(err)
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var count int
		checkErr(rows.Scan(&path, &count))
		counts[path] = count
	}
	return counts
}
