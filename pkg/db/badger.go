package db

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/dgraph-io/badger/options"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

const (
	versionPath  = "pledged/version"
	campaignPath = "campaign"
	seqPath      = "seq"
	pledgePrefix = "pledge/"
	pledgePath   = "pledge/%s"
	eventPrefix  = "event/"
	eventPath    = "event/%020d"
)

// BadgerConfig represents BadgerDB configuration parameters
type BadgerConfig struct {
	Truncate bool `toml:"truncate"`
	FileIO   bool `toml:"file_io"`
}

type Badger struct {
	db *badger.DB
}

var _ Storage = (*Badger)(nil)

func NewBadger(config *Config) (*Badger, error) {
	var (
		dir = config.Dir
	)

	log.Infof("opening database %q", dir)

	// Make sure database directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir database dir")
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(log.StandardLogger()).
		WithTruncate(true)

	if config.Badger != nil {
		opts.Truncate = config.Badger.Truncate
		if config.Badger.FileIO {
			opts.ValueLogLoadingMode = options.FileIO
		}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if err := db.Update(func(txn *badger.Txn) error {
		if err := setObj(txn, []byte(versionPath), CurrentVersion, false); err != nil && err != model.ErrAlreadyExists {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to read database version")
	}

	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	log.Debug("closing database")
	return b.db.Close()
}

func (b *Badger) Version() (int, error) {
	var (
		version = -1
	)

	err := b.db.View(func(txn *badger.Txn) error {
		return getObj(txn, []byte(versionPath), &version)
	})

	return version, err
}

func (b *Badger) Update(_ context.Context, fn func(tx Tx) error) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

func (b *Badger) View(_ context.Context, fn func(tx Tx) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

func (b *Badger) WalkPledges(_ context.Context, cb func(pledge *model.Pledge) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = getKey(pledgePrefix)
		opts.PrefetchValues = true
		return iterator(txn, opts, func(item *badger.Item) error {
			pledge := &model.Pledge{}
			if err := unmarshalObj(item, pledge); err != nil {
				return err
			}

			return cb(pledge)
		})
	})
}

func (b *Badger) WalkEvents(_ context.Context, since uint64, cb func(event *model.Event) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		prefix := getKey(eventPrefix)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(getKey(eventPath, since+1)); iter.ValidForPrefix(prefix); iter.Next() {
			event := &model.Event{}
			if err := unmarshalObj(iter.Item(), event); err != nil {
				return err
			}

			if err := cb(event); err != nil {
				return err
			}
		}

		return nil
	})
}

type badgerTx struct {
	txn *badger.Txn
}

func (t *badgerTx) GetCampaign() (*model.Campaign, error) {
	campaign := &model.Campaign{}
	if err := getObj(t.txn, getKey(campaignPath), campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

func (t *badgerTx) PutCampaign(campaign *model.Campaign) error {
	return setObj(t.txn, getKey(campaignPath), campaign, true)
}

func (t *badgerTx) GetPledge(pledger model.Address) (*model.Pledge, error) {
	pledge := &model.Pledge{}
	if err := getObj(t.txn, getKey(pledgePath, pledger), pledge); err != nil {
		return nil, err
	}

	return pledge, nil
}

func (t *badgerTx) PutPledge(pledge *model.Pledge) error {
	if pledge.Pledger == "" {
		return errors.New("can't save pledge without pledger")
	}

	return setObj(t.txn, getKey(pledgePath, pledge.Pledger), pledge, true)
}

func (t *badgerTx) AddEvent(event *model.Event) error {
	var (
		key = getKey(seqPath)
		seq uint64
	)

	item, err := t.txn.Get(key)
	if err == nil {
		if err := item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return errors.Wrap(err, "failed to read event sequence")
		}
	} else if err != badger.ErrKeyNotFound {
		return errors.Wrap(err, "failed to query event sequence")
	}

	seq++

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	if err := t.txn.Set(key, buf); err != nil {
		return errors.Wrap(err, "failed to update event sequence")
	}

	event.Seq = seq
	return setObj(t.txn, getKey(eventPath, seq), event, false)
}

func iterator(txn *badger.Txn, opts badger.IteratorOptions, callback func(item *badger.Item) error) error {
	iter := txn.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()

		if err := callback(item); err != nil {
			return err
		}
	}

	return nil
}

func getKey(format string, a ...interface{}) []byte {
	resourcePath := fmt.Sprintf(format, a...)
	fullPath := fmt.Sprintf("pledged/v%d/%s", CurrentVersion, resourcePath)

	return []byte(fullPath)
}

func setObj(txn *badger.Txn, key []byte, obj interface{}, overwrite bool) error {
	if !overwrite {
		// Overwrites are not allowed, make sure there is no object with the given key
		_, err := txn.Get(key)
		if err == nil {
			return model.ErrAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return errors.Wrap(err, "failed to check whether key exists")
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize object for key %q", key)
	}

	return txn.Set(key, data)
}

func getObj(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return model.ErrNotFound
		}

		return err
	}

	return unmarshalObj(item, out)
}

func unmarshalObj(item *badger.Item, out interface{}) error {
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
