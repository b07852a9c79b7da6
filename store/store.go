// Package store keeps users and posts in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/yusong-shen/multi-user-blog/internal/logutil"
)

type (
	Store struct {
		db *sql.DB
	}

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"pw_hash"`
		Email        string    `json:"email,omitempty"`
		Created      time.Time `json:"created"`
	}

	Post struct {
		ID           int64     `json:"id"`
		Subject      string    `json:"subject"`
		Content      string    `json:"content"`
		AuthorID     int64     `json:"author_id,omitempty"`
		Created      time.Time `json:"created"`
		LastModified time.Time `json:"last_modified"`
	}
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS
)

const (
	dbFile = "blog.db"
)

// Open loads (or creates) the database kept under dir and brings its
// schema up to date.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create directory %v to store the database, cause %w", dir, err)
	}
	file := filepath.Join(dir, dbFile)
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&_fk=true&mode=rwc", file)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping database %v, cause %v", file, err)
	}
	s := &Store{db: conn}
	err = s.migrate(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to migrate database %v, cause %w", file, err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	log := logutil.GetOrDefault(ctx)
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("Applied migration")
	}
	return nil
}

// CreateUser stores a new user. passwordRecord must already be hashed.
func (s *Store) CreateUser(ctx context.Context, name, passwordRecord, email string) (User, error) {
	u := User{
		Name:         name,
		PasswordHash: passwordRecord,
		Email:        email,
		Created:      time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `insert into users(name, name_hash64, pw_hash, email, created) values (?, ?, ?, ?, ?) returning user_id`,
		name, hashName(name), passwordRecord, email, u.Created.UnixNano()).Scan(&u.ID)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return User{}, NameTaken{Name: name}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to create user %v, cause %w", name, err)
	}
	return u, nil
}

func (s *Store) LookupUserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select user_id, name, pw_hash, email, created from users where user_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{ID: id}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to lookup user %v, cause %w", id, err)
	}
	return u, nil
}

func (s *Store) LookupUserByName(ctx context.Context, name string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `select user_id, name, pw_hash, email, created from users where name_hash64 = ? and name = ?`, hashName(name), name))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, UserNotFound{Name: name}
	} else if err != nil {
		return User{}, fmt.Errorf("unable to lookup user %v, cause %w", name, err)
	}
	return u, nil
}

func (s *Store) CreatePost(ctx context.Context, subject, content string, authorID int64) (Post, error) {
	switch {
	case subject == "":
		return Post{}, InvalidPost{Field: "subject"}
	case content == "":
		return Post{}, InvalidPost{Field: "content"}
	}
	now := time.Now().UTC()
	p := Post{
		Subject:      subject,
		Content:      content,
		AuthorID:     authorID,
		Created:      now,
		LastModified: now,
	}
	err := s.db.QueryRowContext(ctx, `insert into posts(subject, content, author_id, created, last_modified) values (?, ?, ?, ?, ?) returning post_id`,
		subject, content, authorID, now.UnixNano(), now.UnixNano()).Scan(&p.ID)
	if err != nil {
		return Post{}, fmt.Errorf("unable to store post, cause %w", err)
	}
	return p, nil
}

func (s *Store) LookupPost(ctx context.Context, id int64) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `select post_id, subject, content, author_id, created, last_modified from posts where post_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, PostNotFound{ID: id}
	} else if err != nil {
		return Post{}, fmt.Errorf("unable to load post %v, cause %w", id, err)
	}
	return p, nil
}

// RecentPosts returns up to limit posts, newest first.
func (s *Store) RecentPosts(ctx context.Context, limit int) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `select post_id, subject, content, author_id, created, last_modified
	from posts
	order by created desc, post_id desc
	limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to list posts, cause %w", err)
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan post, cause %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(...interface{}) error
}

func scanUser(row scanner) (User, error) {
	var u User
	var created int64
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Email, &created)
	if err != nil {
		return User{}, err
	}
	u.Created = time.Unix(0, created).UTC()
	return u, nil
}

func scanPost(row scanner) (Post, error) {
	var p Post
	var created, modified int64
	err := row.Scan(&p.ID, &p.Subject, &p.Content, &p.AuthorID, &created, &modified)
	if err != nil {
		return Post{}, err
	}
	p.Created = time.Unix(0, created).UTC()
	p.LastModified = time.Unix(0, modified).UTC()
	return p, nil
}

func hashName(name string) int64 {
	return int64(xxhash.Sum64String(name))
}
