package recordstore

import (
	"github.com/goliatone/go-carmart/cache"
	"github.com/goliatone/go-carmart/pkg/logging"
)

const (
	DefaultRecordStoreName = "records"
	DefaultIndexStoreName  = "index"
	DefaultIndexKey        = "keys"
)

// DuplicatePolicy decides what Add does with a key that is already stored.
type DuplicatePolicy int

const (
	// DuplicateUpsert replaces the stored record and keeps the key's single
	// index entry where it is.
	DuplicateUpsert DuplicatePolicy = iota
	// DuplicateReject fails Add with ErrExists and writes nothing.
	DuplicateReject
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateUpsert:
		return "upsert"
	case DuplicateReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Options configures a Store.
type Options struct {
	RecordStoreName string
	IndexStoreName  string
	IndexKey        string
	KeyCodec        cache.KeyCodec
	Duplicates      DuplicatePolicy
	// Capacity caps the number of records. Zero means the record store's own
	// capacity when it is cache.Bounded, and no cap otherwise.
	Capacity int
	Logger   logging.Logger
}

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		RecordStoreName: DefaultRecordStoreName,
		IndexStoreName:  DefaultIndexStoreName,
		IndexKey:        DefaultIndexKey,
		KeyCodec:        cache.NewURLKeyCodec(),
		Duplicates:      DuplicateUpsert,
		Logger:          logging.Nop(),
	}
}

// WithStoreNames sets the names of the record store and the index store.
func WithStoreNames(records, index string) Option {
	return func(o *Options) {
		o.RecordStoreName = records
		o.IndexStoreName = index
	}
}

// WithIndexKey sets the reserved key the index list is stored under.
func WithIndexKey(key string) Option {
	return func(o *Options) { o.IndexKey = key }
}

// WithKeyCodec sets the codec used to turn natural keys into record store keys.
func WithKeyCodec(codec cache.KeyCodec) Option {
	return func(o *Options) {
		if codec != nil {
			o.KeyCodec = codec
		}
	}
}

// WithDuplicatePolicy sets how Add treats keys that are already stored.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(o *Options) { o.Duplicates = p }
}

// WithCapacity caps the number of records the store accepts. A bounded
// record store can lower the cap but never raise it.
func WithCapacity(n int) Option {
	return func(o *Options) { o.Capacity = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
