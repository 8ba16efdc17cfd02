package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"epk-api-go/logcolors"
	"epk-api-go/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "messages"

var errBucketNotFound = errors.New("bucket not found")

// Store persists contact messages in BoltDB with an in-memory copy for
// listing
type Store struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	backupPath         string
	compressionEnabled bool
	now                func() time.Time
}

// NewStore opens (or creates) the message database at dbPath
func NewStore(dbPath string, backupPath string, compressionEnabled bool) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create contact directory: %w", err)
	}
	if err := os.MkdirAll(backupPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing database at %s (size: %d bytes)", logcolors.LogContactStore, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new database at %s", logcolors.LogContactStore, dbPath)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open contact database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create messages bucket: %w", err)
	}

	s := &Store{
		db:                 db,
		dbPath:             dbPath,
		backupPath:         backupPath,
		compressionEnabled: compressionEnabled,
		now:                time.Now,
	}

	if err := s.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload messages: %v", logcolors.LogContactStore, err)
	}

	log.Infof("%s Contact store initialized at %s (compression: %v)", logcolors.LogContactStore, dbPath, compressionEnabled)
	return s, nil
}

func (s *Store) loadToMemory() error {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			msg, err := s.decode(v)
			if err != nil {
				log.Warnf("%s Skipping unreadable message %s: %v", logcolors.LogContactStore, string(k), err)
				return nil
			}
			s.memCache.Store(string(k), msg)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d messages from disk", logcolors.LogContactStore, count)
	return nil
}

func (s *Store) encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if !s.compressionEnabled {
		return data, nil
	}
	return utils.Compress(data)
}

func (s *Store) decode(data []byte) (Message, error) {
	var msg Message
	raw, err := utils.MaybeDecompress(data)
	if err != nil {
		return msg, fmt.Errorf("decompress: %w", err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Save validates and stores a submission, returning the stored message
func (s *Store) Save(sub Submission) (Message, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:        uuid.NewString(),
		Name:      sub.Name,
		Email:     sub.Email,
		Message:   sub.Message,
		CreatedAt: s.now().UTC(),
	}

	data, err := s.encode(msg)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode message: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		return b.Put([]byte(msg.ID), data)
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to save message: %w", err)
	}

	s.memCache.Store(msg.ID, msg)
	return msg, nil
}

// Get returns the message with the given id
func (s *Store) Get(id string) (Message, error) {
	if v, ok := s.memCache.Load(id); ok {
		return v.(Message), nil
	}

	var msg Message
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		var err error
		msg, err = s.decode(data)
		return err
	})
	if err != nil {
		return Message{}, err
	}

	s.memCache.Store(id, msg)
	return msg, nil
}

// List returns every message, newest first
func (s *Store) List() []Message {
	messages := make([]Message, 0)
	s.memCache.Range(func(_, v interface{}) bool {
		messages = append(messages, v.(Message))
		return true
	})
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages
}

// Count returns the number of stored messages
func (s *Store) Count() int {
	n := 0
	s.memCache.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Delete removes a message. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return errBucketNotFound
		}
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		return err
	}

	s.memCache.Delete(id)
	return nil
}

// Backup writes a consistent copy of the database into the backup
// directory and returns its path
func (s *Store) Backup() (string, error) {
	timestamp := s.now().Format("2006-01-02_15-04-05.000")
	backupFilePath := filepath.Join(s.backupPath, fmt.Sprintf("contact_backup_%s.db", timestamp))

	log.Infof("%s Creating backup at: %s", logcolors.LogContactBackup, backupFilePath)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(backupFilePath, 0600)
	})
	if err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	log.Infof("%s Backup created successfully: %s", logcolors.LogContactBackup, backupFilePath)
	return backupFilePath, nil
}

// BackupInfo contains metadata about a backup file
type BackupInfo struct {
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	Size      int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns the backup files in the backup directory, newest first
func (s *Store) ListBackups() ([]BackupInfo, error) {
	backups := make([]BackupInfo, 0)

	entries, err := os.ReadDir(s.backupPath)
	if err != nil {
		if os.IsNotExist(err) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" || !strings.HasPrefix(entry.Name(), "contact_backup_") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warnf("%s Failed to get info for %s: %v", logcolors.LogContactBackup, entry.Name(), err)
			continue
		}

		backups = append(backups, BackupInfo{
			FileName:  entry.Name(),
			FilePath:  filepath.Join(s.backupPath, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].FileName > backups[j].FileName })
	return backups, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
