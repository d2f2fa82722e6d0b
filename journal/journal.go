package journal

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/logger"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const recordPrefix = "claim/"

var ErrNotFound = errors.New("journal record not found")

// Record is one finished claim attempt.
type Record struct {
	ID      string    `json:"id"`
	AssetID uint64    `json:"asset_id"`
	Name    string    `json:"name"`
	Attempt int       `json:"attempt"`
	TxID    string    `json:"tx_id,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

func (r Record) Success() bool {
	return r.Error == ""
}

// Journal keeps the history of claim attempts. It is a log for operators, the
// scheduler never reads it back.
type Journal struct {
	db *badger.DB
}

func openWith(options badger.Options) (*Journal, error) {
	level := badger.INFO
	switch log.Logger.GetLevel() {
	case zerolog.DebugLevel:
		level = badger.DEBUG
	case zerolog.WarnLevel:
		level = badger.WARNING
	case zerolog.ErrorLevel:
		level = badger.ERROR
	}

	options = options.
		WithLogger(&logger.ClaimerLogger{}).
		WithLoggingLevel(level)

	db, err := badger.Open(options)
	if err != nil {
		log.Error().Err(err).Msg("Error opening claim journal")
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Open opens or creates the journal stored in dir.
func Open(dir string) (*Journal, error) {
	dir = os.ExpandEnv(dir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	j, err := openWith(badger.DefaultOptions(dir))
	if err != nil {
		return nil, err
	}
	log.Info().Str("directory", dir).Msg("Opened claim journal")
	return j, nil
}

func OpenInMemory() (*Journal, error) {
	return openWith(badger.DefaultOptions("").WithInMemory(true))
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func recordKey(r Record) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", recordPrefix, r.At.UnixNano(), r.ID))
}

// Append stores r, assigning an id when it has none.
func (j *Journal) Append(r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return r, err
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(r), data)
	})
	if err != nil {
		return r, err
	}

	recordsWritten.Inc()
	return r, nil
}

// Observe records a claim outcome. Errors are logged, claiming never stops for the journal.
func (j *Journal) Observe(outcome types.ClaimOutcome) {
	r := Record{
		AssetID: outcome.AssetID,
		Name:    outcome.Name,
		Attempt: outcome.Attempt,
		TxID:    outcome.TxID,
		At:      outcome.At,
	}
	if outcome.Err != nil {
		r.Error = outcome.Err.Error()
	}

	if _, err := j.Append(r); err != nil {
		log.Error().Err(err).Uint64("asset_id", outcome.AssetID).Msg("Cannot write claim journal")
	}
}

// List returns up to limit records, newest first. A limit of 0 returns everything.
func (j *Journal) List(limit int) ([]Record, error) {
	return j.scan(limit, nil)
}

// ByAsset returns the records of one asset, newest first.
func (j *Journal) ByAsset(assetID uint64, limit int) ([]Record, error) {
	return j.scan(limit, func(r Record) bool {
		return r.AssetID == assetID
	})
}

func (j *Journal) scan(limit int, keep func(Record) bool) ([]Record, error) {
	records := make([]Record, 0)

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(recordPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse iteration starts from the largest key below the seek key
		for it.Seek([]byte(recordPrefix + "~")); it.Valid(); it.Next() {
			var r Record
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &r)
			})
			if err != nil {
				return err
			}
			if keep != nil && !keep(r) {
				continue
			}
			records = append(records, r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})

	return records, err
}

// Get finds a record by id.
func (j *Journal) Get(id string) (Record, error) {
	var out Record
	found := false

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), "/"+id) {
				continue
			}
			found = true
			return item.Value(func(v []byte) error {
				return json.Unmarshal(v, &out)
			})
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return out, nil
}

// Keys lists every key in the journal.
func (j *Journal) Keys() ([]string, error) {
	keys := make([]string, 0)

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})

	return keys, err
}
